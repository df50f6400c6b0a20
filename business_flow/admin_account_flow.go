// Package businessflow contains the core business logic and use cases for account workflows
package businessflow

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/amirphl/dti-portal/app/dto"
	"github.com/amirphl/dti-portal/models"
	"github.com/amirphl/dti-portal/repository"
	"github.com/amirphl/dti-portal/utils"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
)

const exportBatchSize = 500

// AdminAccountFlow covers account administration
type AdminAccountFlow interface {
	ListAccounts(ctx context.Context, adminID uint, req *dto.AdminListAccountsRequest) (*dto.AdminListAccountsResponse, error)
	UpdateAccount(ctx context.Context, adminID, accountID uint, req *dto.AdminUpdateAccountRequest) (*dto.AccountDTO, error)
	ExportAccounts(ctx context.Context, adminID uint, req *dto.AdminListAccountsRequest) (string, []byte, error)
	// EnsureSuperuser creates the bootstrap superuser if no account has that username yet
	EnsureSuperuser(ctx context.Context, username, email, password string) (*models.Account, error)
}

// AdminAccountFlowImpl implements AdminAccountFlow
type AdminAccountFlowImpl struct {
	accountRepo repository.AccountRepository
	bcryptCost  int
	now         utils.Clock
}

func NewAdminAccountFlow(accountRepo repository.AccountRepository, bcryptCost int) AdminAccountFlow {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AdminAccountFlowImpl{
		accountRepo: accountRepo,
		bcryptCost:  bcryptCost,
		now:         utils.UTCNow,
	}
}

func (f *AdminAccountFlowImpl) ListAccounts(ctx context.Context, adminID uint, req *dto.AdminListAccountsRequest) (*dto.AdminListAccountsResponse, error) {
	if err := requireManager(ctx, f.accountRepo, adminID); err != nil {
		return nil, err
	}

	filter, page, pageSize, err := accountFilterFromRequest(req)
	if err != nil {
		return nil, err
	}

	total, err := f.accountRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("ACCOUNTS_FETCH_FAILED", "Failed to count accounts", err)
	}

	rows, err := f.accountRepo.ByFilter(ctx, filter, "id DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("ACCOUNTS_FETCH_FAILED", "Failed to list accounts", err)
	}

	items := make([]dto.AccountDTO, 0, len(rows))
	for _, a := range rows {
		items = append(items, ToAccountDTO(*a))
	}

	return &dto.AdminListAccountsResponse{
		Items:      items,
		Pagination: paginationInfo(total, page, pageSize),
	}, nil
}

// UpdateAccount changes role and privilege fields. The save-time normalization
// still applies, so a superuser always ends up as admin and only collection
// agents keep office and designation.
func (f *AdminAccountFlowImpl) UpdateAccount(ctx context.Context, adminID, accountID uint, req *dto.AdminUpdateAccountRequest) (*dto.AccountDTO, error) {
	if req == nil {
		return nil, NewBusinessError("ADMIN_UPDATE_VALIDATION_FAILED", "Update request is required", nil)
	}

	if err := requireManager(ctx, f.accountRepo, adminID); err != nil {
		return nil, err
	}

	account, err := f.accountRepo.ByID(ctx, accountID)
	if err != nil {
		return nil, NewBusinessError("ACCOUNT_LOOKUP_FAILED", "Failed to lookup account", err)
	}
	if account == nil {
		return nil, NewBusinessError("ACCOUNT_NOT_FOUND", "Account not found", ErrAccountNotFound)
	}

	if req.Role != nil {
		role := models.Role(*req.Role)
		if !role.Valid() {
			return nil, NewBusinessError("INVALID_ROLE", "Invalid role", ErrInvalidRole)
		}
		if account.IsSuperuser && role != models.RoleAdmin && (req.IsSuperuser == nil || *req.IsSuperuser) {
			return nil, NewBusinessError("SUPERUSER_ROLE_LOCKED", "A superuser is always an admin", ErrSuperuserCannotBeDemoted)
		}
		account.Role = role
	}
	if req.IsSuperuser != nil {
		account.IsSuperuser = *req.IsSuperuser
	}
	if req.IsStaff != nil {
		account.IsStaff = *req.IsStaff
	}
	if req.IsActive != nil {
		if accountID == adminID && !*req.IsActive {
			return nil, NewBusinessError("ACCESS_DENIED", "Administrators cannot deactivate themselves", ErrAccessDenied)
		}
		account.IsActive = req.IsActive
	}
	if req.DTIOffice != nil {
		account.DTIOffice = req.DTIOffice
	}
	if req.OfficialDesignation != nil {
		account.OfficialDesignation = req.OfficialDesignation
	}

	if err := f.accountRepo.Update(ctx, account); err != nil {
		return nil, NewBusinessError("ACCOUNT_UPDATE_FAILED", "Failed to update account", err)
	}

	log.Printf("account updated by admin: account=%d admin=%d role=%s", account.ID, adminID, account.Role)

	out := ToAccountDTO(*account)
	return &out, nil
}

// ExportAccounts renders every account matching the filter into an XLSX workbook
func (f *AdminAccountFlowImpl) ExportAccounts(ctx context.Context, adminID uint, req *dto.AdminListAccountsRequest) (string, []byte, error) {
	if err := requireManager(ctx, f.accountRepo, adminID); err != nil {
		return "", nil, err
	}

	filter, _, _, err := accountFilterFromRequest(req)
	if err != nil {
		return "", nil, err
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "Accounts"
	xl.SetSheetName(xl.GetSheetName(0), sheet)

	header := []string{"id", "uuid", "username", "email", "full_name", "role", "is_superuser", "is_staff", "is_active", "is_verified", "default_phone", "dti_office", "official_designation", "created_at", "last_login_at"}
	if err := xl.SetSheetRow(sheet, "A1", &header); err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel header", err)
	}

	row := 2
	for offset := 0; ; offset += exportBatchSize {
		batch, err := f.accountRepo.ByFilter(ctx, filter, "id ASC", exportBatchSize, offset)
		if err != nil {
			return "", nil, NewBusinessError("ACCOUNTS_FETCH_FAILED", "Failed to list accounts", err)
		}
		for _, a := range batch {
			record := accountExportRecord(a)
			cellRef, _ := excelize.CoordinatesToCellName(1, row)
			if err := xl.SetSheetRow(sheet, cellRef, &record); err != nil {
				return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel row", err)
			}
			row++
		}
		if len(batch) < exportBatchSize {
			break
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}

	filename := fmt.Sprintf("accounts_%s.xlsx", f.now().Format("20060102_150405"))
	return filename, buf.Bytes(), nil
}

func (f *AdminAccountFlowImpl) EnsureSuperuser(ctx context.Context, username, email, password string) (*models.Account, error) {
	if username == "" || password == "" {
		return nil, nil
	}

	existing, err := f.accountRepo.ByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup superuser: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), f.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash superuser password: %w", err)
	}

	now := f.now()
	account := &models.Account{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsSuperuser:  true,
		IsStaff:      true,
		IsActive:     utils.ToPtr(true),
		IsVerified:   utils.ToPtr(true),
		VerifiedAt:   &now,
	}
	if err := f.accountRepo.Save(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create superuser: %w", err)
	}

	log.Printf("bootstrap superuser created: %s", username)
	return account, nil
}

func accountFilterFromRequest(req *dto.AdminListAccountsRequest) (models.AccountFilter, int, int, error) {
	var filter models.AccountFilter
	page, pageSize := 0, 0
	if req != nil {
		if req.Role != "" {
			role := models.Role(req.Role)
			if !role.Valid() {
				return filter, 0, 0, NewBusinessError("INVALID_ROLE", "Invalid role", ErrInvalidRole)
			}
			filter.Role = &role
		}
		filter.IsVerified = req.IsVerified
		filter.IsActive = req.IsActive
		page, pageSize = req.Page, req.PageSize
	}

	page, pageSize, err := normalizePage(page, pageSize)
	if err != nil {
		return filter, 0, 0, NewBusinessError("INVALID_PAGINATION", err.Error(), err)
	}
	return filter, page, pageSize, nil
}

func accountExportRecord(a *models.Account) []string {
	lastLogin := ""
	if a.LastLoginAt != nil {
		lastLogin = a.LastLoginAt.UTC().Format(time.RFC3339)
	}
	return []string{
		strconv.FormatUint(uint64(a.ID), 10),
		a.UUID.String(),
		a.Username,
		a.Email,
		a.FullName(),
		string(a.Role),
		strconv.FormatBool(a.IsSuperuser),
		strconv.FormatBool(a.IsStaff),
		strconv.FormatBool(utils.IsTrue(a.IsActive)),
		strconv.FormatBool(utils.IsTrue(a.IsVerified)),
		utils.Deref(a.DefaultPhone),
		utils.Deref(a.DTIOffice),
		utils.Deref(a.OfficialDesignation),
		a.CreatedAt.UTC().Format(time.RFC3339),
		lastLogin,
	}
}
