package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/zobayer1/bankzest/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountExists      = errors.New("an account with this email already exists")
)

const statusActive = "active"

// IdentityService is the local identity backend. It satisfies form.Authenticator.
type IdentityService struct {
	DB *sql.DB
}

func NewIdentityService(db *sql.DB) *IdentityService {
	return &IdentityService{DB: db}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *IdentityService) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)", normalizeEmail(email)).Scan(&exists)
	if err != nil {
		log.Errorf("Failed to check if email exists: %v", err)
		return false, err
	}
	return exists, nil
}

func (s *IdentityService) SignIn(ctx context.Context, email, password string) (*models.Identity, error) {
	var identity models.Identity
	var passwordHash string

	err := s.DB.QueryRowContext(ctx,
		"SELECT id, email, first_name, last_name, password_hash, created_at, status FROM users WHERE email = ?",
		normalizeEmail(email)).
		Scan(&identity.ID, &identity.Email, &identity.FirstName, &identity.LastName, &passwordHash,
			&identity.CreatedAt, &identity.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debugf("No user found with email: %s", email)
			return nil, ErrInvalidCredentials
		}
		log.Errorf("Failed to query user by email: %v", err)
		return nil, err
	}

	if bcryptErr := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); bcryptErr != nil {
		if errors.Is(bcryptErr, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		log.Errorf("Failed to compare password hash: %v", bcryptErr)
		return nil, bcryptErr
	}

	return &identity, nil
}

func (s *IdentityService) SignUp(ctx context.Context, params models.SignUpParams) (*models.Identity, error) {
	email := normalizeEmail(params.Email)

	tx, txErr := s.DB.BeginTx(ctx, nil)
	if txErr != nil {
		log.Errorf("Failed to begin transaction: %v", txErr)
		return nil, txErr
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Errorf("Failed to rollback transaction: %v", rbErr)
		}
	}()

	hashedPassword, hpErr := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if hpErr != nil {
		log.Errorf("Failed to hash password: %v", hpErr)
		return nil, hpErr
	}

	identity := models.Identity{
		ID:        uuid.NewString(),
		Email:     email,
		FirstName: params.FirstName,
		LastName:  params.LastName,
		CreatedAt: time.Now().UTC(),
		Status:    statusActive,
	}
	_, resErr := tx.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, first_name, last_name, address1, city, state,
			postal_code, date_of_birth, ssn_last4, created_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		identity.ID, email, hashedPassword, params.FirstName, params.LastName, params.Address1,
		params.City, params.State, params.PostalCode, params.DateOfBirth, lastFour(params.SSN),
		identity.CreatedAt, identity.Status,
	)
	if resErr != nil {
		var sqliteErr sqlite3.Error
		if errors.As(resErr, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, ErrAccountExists
		}
		log.Errorf("Failed to insert user: %v", resErr)
		return nil, resErr
	}

	if cmErr := tx.Commit(); cmErr != nil {
		log.Errorf("Failed to commit transaction: %v", cmErr)
		return nil, cmErr
	}

	log.WithField("user_id", identity.ID).Info("Created new user")
	return &identity, nil
}

func lastFour(ssn string) string {
	r := []rune(ssn)
	if len(r) <= 4 {
		return ssn
	}
	return string(r[len(r)-4:])
}
