package services

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "github.com/charlesng35/posadmin/pkg/errors"
)

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrOrganizationNotFound indicates the requested organization does not exist.
	ErrOrganizationNotFound = apperrors.New("ORGANIZATION_NOT_FOUND", "Organization not found", http.StatusNotFound)
	// ErrTicketNotFound hides tickets the caller may not see.
	ErrTicketNotFound = apperrors.New("TICKET_NOT_FOUND", "Ticket not found", http.StatusNotFound)
	// ErrTicketClosed rejects replies on closed tickets.
	ErrTicketClosed = apperrors.New("TICKET_CLOSED", "Ticket is closed", http.StatusBadRequest)
	// ErrEmailTaken reports a duplicate user email.
	ErrEmailTaken = apperrors.New("EMAIL_TAKEN", "Email is already registered", http.StatusConflict)
	// ErrOrganizationExists reports a duplicate organization slug.
	ErrOrganizationExists = apperrors.New("ORGANIZATION_EXISTS", "Organization already exists", http.StatusConflict)
)

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique") || strings.Contains(lower, "duplicate")
}
