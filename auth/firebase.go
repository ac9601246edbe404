package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const firebaseBaseURL = "https://identitytoolkit.googleapis.com/v1"

// Firebase implémente Provider via l'API REST Identity Toolkit.
// La clé d'API web du projet doit être fournie dans FIREBASE_API_KEY.
type Firebase struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewFirebase() (*Firebase, error) {
	apiKey := os.Getenv("FIREBASE_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("FIREBASE_API_KEY is required in environment variables")
	}
	return &Firebase{
		apiKey:  apiKey,
		baseURL: firebaseBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// NewFirebaseWithBase permet de pointer l'adaptateur vers un émulateur.
func NewFirebaseWithBase(apiKey, baseURL string) *Firebase {
	return &Firebase{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type firebaseAuthResponse struct {
	LocalID string `json:"localId"`
	Email   string `json:"email"`
	IDToken string `json:"idToken"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (f *Firebase) post(ctx context.Context, endpoint string, payload any) (*firebaseAuthResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/%s?key=%s", f.baseURL, endpoint, f.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling identity provider: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading identity provider response: %w", err)
	}

	var parsed firebaseAuthResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decoding identity provider response: %w", err)
	}
	if resp.StatusCode >= 400 || parsed.Error != nil {
		return nil, mapFirebaseError(parsed.Error)
	}
	return &parsed, nil
}

func mapFirebaseError(e *struct {
	Message string `json:"message"`
}) error {
	if e == nil {
		return fmt.Errorf("identity provider error")
	}
	code := e.Message
	switch {
	case strings.HasPrefix(code, "EMAIL_EXISTS"):
		return ErrEmailInUse
	case strings.HasPrefix(code, "EMAIL_NOT_FOUND"),
		strings.HasPrefix(code, "INVALID_PASSWORD"),
		strings.HasPrefix(code, "INVALID_LOGIN_CREDENTIALS"),
		strings.HasPrefix(code, "USER_DISABLED"):
		return ErrInvalidCredentials
	case strings.HasPrefix(code, "WEAK_PASSWORD"):
		return ErrWeakPassword
	default:
		return fmt.Errorf("identity provider error: %s", code)
	}
}

func (f *Firebase) SignUp(ctx context.Context, email, password string) (*Session, error) {
	resp, err := f.post(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, err
	}
	return &Session{UID: resp.LocalID, Email: resp.Email, Token: resp.IDToken}, nil
}

func (f *Firebase) SignIn(ctx context.Context, email, password string) (*Session, error) {
	resp, err := f.post(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, err
	}
	return &Session{UID: resp.LocalID, Email: resp.Email, Token: resp.IDToken}, nil
}

// Reauthenticate revérifie le mot de passe actuel; même appel que SignIn,
// mais le jeton retourné sert uniquement au changement de mot de passe.
func (f *Firebase) Reauthenticate(ctx context.Context, email, currentPassword string) (*Session, error) {
	return f.SignIn(ctx, email, currentPassword)
}

func (f *Firebase) ChangePassword(ctx context.Context, session *Session, newPassword string) error {
	if session == nil || session.Token == "" {
		return ErrInvalidCredentials
	}
	_, err := f.post(ctx, "accounts:update", map[string]any{
		"idToken":           session.Token,
		"password":          newPassword,
		"returnSecureToken": false,
	})
	return err
}
