// Package businessflow contains the core business logic and use cases for account workflows
package businessflow

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/amirphl/dti-portal/app/dto"
	"github.com/amirphl/dti-portal/models"
	"github.com/amirphl/dti-portal/repository"
	"github.com/amirphl/dti-portal/utils"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	maxProfilePictureSize   = int64(5 * 1024 * 1024) // 5MB
	maxProfilePicturePixels = 40_000_000             // checked from the header before decoding
	profilePictureMaxDim    = 512
	profilePictureDir       = "profile_pictures"
)

var allowedPictureExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ProfileFlow exposes the profile of an account to itself and to administrators
type ProfileFlow interface {
	Profile(ctx context.Context, viewerID, accountID uint) (*dto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, accountID uint, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error)
	UploadProfilePicture(ctx context.Context, req *dto.UploadProfilePictureRequest) (*dto.ProfileResponse, error)
}

// ProfileFlowImpl implements ProfileFlow
type ProfileFlowImpl struct {
	accountRepo repository.AccountRepository
	mediaRoot   string
}

func NewProfileFlow(accountRepo repository.AccountRepository, mediaRoot string) ProfileFlow {
	return &ProfileFlowImpl{
		accountRepo: accountRepo,
		mediaRoot:   mediaRoot,
	}
}

// Profile returns accountID's profile. Viewers other than the owner need staff, superuser or admin rights.
func (pf *ProfileFlowImpl) Profile(ctx context.Context, viewerID, accountID uint) (*dto.ProfileResponse, error) {
	if viewerID != accountID {
		viewer, err := getAccount(ctx, pf.accountRepo, viewerID)
		if err != nil {
			return nil, err
		}
		if !canManageAccounts(viewer) {
			return nil, NewBusinessError("ACCESS_DENIED", "Not allowed to view this profile", ErrAccessDenied)
		}
	}

	account, err := pf.accountRepo.ByID(ctx, accountID)
	if err != nil {
		return nil, NewBusinessError("ACCOUNT_LOOKUP_FAILED", "Failed to lookup account", err)
	}
	if account == nil {
		return nil, NewBusinessError("ACCOUNT_NOT_FOUND", "Account not found", ErrAccountNotFound)
	}

	return &dto.ProfileResponse{
		Message: "Profile retrieved successfully",
		Account: ToAccountDTO(*account),
	}, nil
}

func (pf *ProfileFlowImpl) UpdateProfile(ctx context.Context, accountID uint, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	if req == nil {
		return nil, NewBusinessError("PROFILE_VALIDATION_FAILED", "Profile update request is required", nil)
	}

	account, err := getAccount(ctx, pf.accountRepo, accountID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != account.Email {
			exists, err := pf.accountRepo.Exists(ctx, models.AccountFilter{Email: &email})
			if err != nil {
				return nil, NewBusinessError("PROFILE_UPDATE_FAILED", "Failed to check email", err)
			}
			if exists {
				return nil, NewBusinessError("EMAIL_EXISTS", "Email already exists", ErrEmailAlreadyExists)
			}
			account.Email = email
		}
	}
	if req.FirstName != nil {
		account.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.MiddleName != nil {
		account.MiddleName = req.MiddleName
	}
	if req.LastName != nil {
		account.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.DefaultAddress != nil {
		account.DefaultAddress = req.DefaultAddress
	}
	if req.DefaultPhone != nil {
		account.DefaultPhone = req.DefaultPhone
	}
	if req.Birthday != nil {
		account.Birthday = req.Birthday
	}

	if err := pf.accountRepo.Update(ctx, account); err != nil {
		if repository.IsDuplicateOn(err, models.UniqueAccountEmail) {
			return nil, NewBusinessError("EMAIL_EXISTS", "Email already exists", ErrEmailAlreadyExists)
		}
		return nil, NewBusinessError("PROFILE_UPDATE_FAILED", "Failed to update profile", err)
	}

	return &dto.ProfileResponse{
		Message: "Profile updated successfully",
		Account: ToAccountDTO(*account),
	}, nil
}

// UploadProfilePicture stores a resized JPEG copy of the uploaded image and points the account at it
func (pf *ProfileFlowImpl) UploadProfilePicture(ctx context.Context, req *dto.UploadProfilePictureRequest) (*dto.ProfileResponse, error) {
	if req == nil || req.File == nil {
		return nil, NewBusinessError("INVALID_REQUEST", "file is required", ErrInvalidImage)
	}
	if req.FileSize <= 0 {
		return nil, NewBusinessError("INVALID_FILE", "file size is required", ErrInvalidImage)
	}
	if req.FileSize > maxProfilePictureSize {
		return nil, NewBusinessError("FILE_TOO_LARGE", "file size exceeds 5MB", ErrImageTooLarge)
	}
	ext := strings.ToLower(filepath.Ext(req.OriginalFilename))
	if !allowedPictureExts[ext] {
		return nil, NewBusinessError("INVALID_FILE_TYPE", "allowed file types: jpg, jpeg, png, gif, webp", ErrInvalidImage)
	}

	account, err := getAccount(ctx, pf.accountRepo, req.AccountID)
	if err != nil {
		return nil, err
	}

	data, err := encodeProfilePicture(io.LimitReader(req.File, maxProfilePictureSize+1))
	if err != nil {
		return nil, err
	}

	relPath := path.Join(profilePictureDir, uuid.New().String()+".jpg")
	absPath := filepath.Join(pf.mediaRoot, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, NewBusinessError("PROFILE_PICTURE_SAVE_FAILED", "Failed to prepare media directory", err)
	}
	if err := os.WriteFile(absPath, data, 0o644); err != nil {
		return nil, NewBusinessError("PROFILE_PICTURE_SAVE_FAILED", "Failed to store picture", err)
	}

	previous := account.ProfilePicture
	account.ProfilePicture = relPath
	if err := pf.accountRepo.Update(ctx, account); err != nil {
		_ = os.Remove(absPath)
		return nil, NewBusinessError("PROFILE_UPDATE_FAILED", "Failed to update profile", err)
	}

	if previous != "" && previous != utils.DefaultProfilePicture && strings.HasPrefix(previous, profilePictureDir+"/") {
		_ = os.Remove(filepath.Join(pf.mediaRoot, filepath.FromSlash(previous)))
	}

	return &dto.ProfileResponse{
		Message: "Profile picture updated successfully",
		Account: ToAccountDTO(*account),
	}, nil
}

func encodeProfilePicture(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, NewBusinessError("INVALID_IMAGE", "failed to read image", fmt.Errorf("%w: %v", ErrInvalidImage, err))
	}
	if int64(len(raw)) > maxProfilePictureSize {
		return nil, NewBusinessError("FILE_TOO_LARGE", "file size exceeds 5MB", ErrImageTooLarge)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, NewBusinessError("INVALID_IMAGE", "file is not a supported image", fmt.Errorf("%w: %v", ErrInvalidImage, err))
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, NewBusinessError("INVALID_IMAGE", "image has no pixels", ErrInvalidImage)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxProfilePicturePixels {
		return nil, NewBusinessError("IMAGE_DIMENSIONS_TOO_LARGE", "image dimensions are too large", ErrImageTooLarge)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, NewBusinessError("INVALID_IMAGE", "file is not a supported image", fmt.Errorf("%w: %v", ErrInvalidImage, err))
	}

	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, resizeImage(img, profilePictureMaxDim), &jpeg.Options{Quality: 85}); err != nil {
		return nil, NewBusinessError("INVALID_IMAGE", "failed to encode image", err)
	}
	return buf.Bytes(), nil
}

// resizeImage scales src down so neither side exceeds maxDim, flattening onto white
func resizeImage(src image.Image, maxDim int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	nw, nh := w, h
	if w > maxDim || h > maxDim {
		if w >= h {
			nw = maxDim
			nh = int(float64(h) * float64(maxDim) / float64(w))
		} else {
			nh = maxDim
			nw = int(float64(w) * float64(maxDim) / float64(h))
		}
	}
	nw, nh = max(nw, 1), max(nh, 1)

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	imagedraw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, imagedraw.Src)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

func canManageAccounts(a *models.Account) bool {
	return a.HasSuperuserPrivilege() || a.IsStaff || a.IsAdmin()
}
