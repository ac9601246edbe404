package utils

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

var cld *cloudinary.Cloudinary

// InitCloudinary initialise la connexion à Cloudinary
func InitCloudinary() error {
	var err error

	cloudName := os.Getenv("CLOUDINARY_CLOUD_NAME")
	apiKey := os.Getenv("CLOUDINARY_API_KEY")
	apiSecret := os.Getenv("CLOUDINARY_API_SECRET")

	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return fmt.Errorf("les variables d'environnement Cloudinary ne sont pas définies")
	}

	cld, err = cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return fmt.Errorf("erreur lors de l'initialisation de Cloudinary: %v", err)
	}

	// Vérifier la connexion à Cloudinary
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = cld.Admin.Ping(ctx)
	if err != nil {
		return fmt.Errorf("erreur lors de la vérification de la connexion à Cloudinary: %v", err)
	}

	LogSuccess("Cloudinary initialisé avec succès et connexion vérifiée")
	return nil
}

func boolPointer(b bool) *bool {
	return &b
}

// Vérifie si l'extension du fichier est supportée
func isValidImageType(filename string) bool {
	validExtensions := []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp"}
	lowerFilename := strings.ToLower(filename)

	for _, ext := range validExtensions {
		if strings.HasSuffix(lowerFilename, ext) {
			return true
		}
	}
	return false
}

// UploadImage télécharge une image vers Cloudinary et retourne son URL sécurisée
func UploadImage(ctx context.Context, file *multipart.FileHeader, folder string, prefix string) (string, error) {
	// Vérifier le type d'image
	if !isValidImageType(file.Filename) {
		return "", fmt.Errorf("format d'image non supporté. Utilisez JPG, PNG, GIF, WEBP ou BMP")
	}

	// Vérifier la taille de l'image (10MB max)
	if file.Size > 10*1024*1024 {
		return "", fmt.Errorf("taille d'image trop grande. Maximum 10MB autorisé")
	}

	if cld == nil {
		if err := InitCloudinary(); err != nil {
			return "", err
		}
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("erreur lors de l'ouverture du fichier: %v", err)
	}
	defer src.Close()

	uploadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	publicID := fmt.Sprintf("%s_%s", prefix, uuid.NewString())
	uploadParams := uploader.UploadParams{
		Folder:         folder,
		PublicID:       publicID,
		UseFilename:    boolPointer(true),
		UniqueFilename: boolPointer(true),
		Overwrite:      boolPointer(false),
		ResourceType:   "image",
	}

	uploadResult, err := cld.Upload.Upload(uploadCtx, src, uploadParams)
	if err != nil {
		return "", fmt.Errorf("erreur lors du téléchargement vers Cloudinary: %v", err)
	}

	if uploadResult.SecureURL == "" {
		// Si l'URL est vide mais qu'on a un PublicID, on peut construire l'URL
		if uploadResult.PublicID != "" {
			cloudName := os.Getenv("CLOUDINARY_CLOUD_NAME")
			return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/%s",
				cloudName, uploadResult.PublicID), nil
		}
		return "", fmt.Errorf("URL sécurisée vide dans la réponse de Cloudinary")
	}

	return uploadResult.SecureURL, nil
}

// CloudinaryUploader adapte UploadImage à l'interface d'upload des mutations,
// un dossier par collection.
type CloudinaryUploader struct {
	Folder string
	Prefix string
}

func (u CloudinaryUploader) Upload(ctx context.Context, file *multipart.FileHeader) (string, error) {
	return UploadImage(ctx, file, u.Folder, u.Prefix)
}
