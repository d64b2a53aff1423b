package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"nutrilens/models"
	"nutrilens/utils"

	"gorm.io/gorm"
)

const (
	resetCodeLength = 6
	resetCodeTTL    = 15 * time.Minute
	maxUsernameLen  = 150
	maxNameLen      = 50
)

// Mailer sends account mail.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, code string) error
}

// RegisterInput is a signup request. Condition flags arrive as top-level
// has_* booleans and are collected into Conditions.
type RegisterInput struct {
	Username     string   `json:"username"`
	Password     string   `json:"password"`
	Password2    string   `json:"password2"`
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	Gender       string   `json:"gender"`
	Age          *int     `json:"age"`
	Height       *float64 `json:"height"`
	Weight       *float64 `json:"weight"`
	IsVegetarian bool     `json:"is_vegetarian"`
	DietGoal     string   `json:"diet_goal"`

	Conditions map[models.Condition]bool `json:"-"`
}

func (in *RegisterInput) UnmarshalJSON(b []byte) error {
	type plain RegisterInput
	if err := json.Unmarshal(b, (*plain)(in)); err != nil {
		return err
	}
	conds, err := decodeConditionFlags(b)
	if err != nil {
		return err
	}
	in.Conditions = conds
	return nil
}

// ProfileUpdate is a partial profile change. Nil fields are left alone.
type ProfileUpdate struct {
	Email        *string  `json:"email"`
	Name         *string  `json:"name"`
	Gender       *string  `json:"gender"`
	Age          *int     `json:"age"`
	Height       *float64 `json:"height"`
	Weight       *float64 `json:"weight"`
	IsVegetarian *bool    `json:"is_vegetarian"`
	DietGoal     *string  `json:"diet_goal"`

	Conditions map[models.Condition]bool `json:"-"`
}

func (in *ProfileUpdate) UnmarshalJSON(b []byte) error {
	type plain ProfileUpdate
	if err := json.Unmarshal(b, (*plain)(in)); err != nil {
		return err
	}
	conds, err := decodeConditionFlags(b)
	if err != nil {
		return err
	}
	in.Conditions = conds
	return nil
}

// decodeConditionFlags picks the known has_* keys out of a JSON object.
func decodeConditionFlags(b []byte) (map[models.Condition]bool, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	out := map[models.Condition]bool{}
	for k, raw := range fields {
		c, ok := models.ParseCondition(k)
		if !ok {
			continue
		}
		var v bool
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%s: must be a boolean", k)
		}
		out[c] = v
	}
	return out, nil
}

// UserDTO is the profile as the API shows it. Condition flags are flattened
// into the top level by MarshalJSON.
type UserDTO struct {
	ID           uint            `json:"id"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	Name         string          `json:"name"`
	Gender       string          `json:"gender"`
	Age          uint            `json:"age"`
	Height       float64         `json:"height"`
	Weight       float64         `json:"weight"`
	IsVegetarian bool            `json:"is_vegetarian"`
	DietGoal     string          `json:"diet_goal"`
	DateJoined   time.Time       `json:"date_joined"`
	Flags        map[string]bool `json:"-"`
}

func (u UserDTO) MarshalJSON() ([]byte, error) {
	type plain UserDTO
	b, err := json.Marshal(plain(u))
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	for k, v := range u.Flags {
		m[k] = v
	}
	return json.Marshal(m)
}

func UserResponse(u *models.User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Name:         u.Name,
		Gender:       u.Gender,
		Age:          u.Age,
		Height:       u.Height,
		Weight:       u.Weight,
		IsVegetarian: u.IsVegetarian,
		DietGoal:     u.DietGoal,
		DateJoined:   u.CreatedAt,
		Flags:        u.HealthFlags.AsMap(),
	}
}

type AccountService struct {
	db     *gorm.DB
	mailer Mailer
	now    Clock
}

// NewAccountService builds the account service. mailer may be nil, in which
// case reset codes are only logged.
func NewAccountService(db *gorm.DB, mailer Mailer) *AccountService {
	return &AccountService{db: db, mailer: mailer, now: time.Now}
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	verr := &ValidationError{}
	in.Username = strings.TrimSpace(in.Username)
	switch {
	case in.Username == "":
		verr.Add("username", "This field is required.")
	case len(in.Username) > maxUsernameLen:
		verr.Add("username", fmt.Sprintf("Ensure this field has no more than %d characters.", maxUsernameLen))
	}
	if in.Password == "" {
		verr.Add("password", "This field is required.")
	}
	if in.Password2 == "" {
		verr.Add("password2", "This field is required.")
	} else if in.Password != in.Password2 {
		verr.Add("non_field_errors", "Passwords do not match.")
	}
	if strings.TrimSpace(in.Name) == "" {
		verr.Add("name", "This field is required.")
	}
	validateGender(verr, in.Gender, true)
	validateAge(verr, in.Age, true)
	validatePositive(verr, "height", in.Height, true)
	validatePositive(verr, "weight", in.Weight, true)
	validateDietGoal(verr, in.DietGoal, true)
	validateEmail(verr, in.Email)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", in.Username).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if count > 0 {
		return nil, &ValidationError{Fields: map[string][]string{"username": {"A user with that username already exists."}}}
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     in.Username,
		Password:     hash,
		Email:        strings.TrimSpace(in.Email),
		Name:         strings.TrimSpace(in.Name),
		Gender:       in.Gender,
		Age:          uint(*in.Age),
		Height:       *in.Height,
		Weight:       *in.Weight,
		IsVegetarian: in.IsVegetarian,
		DietGoal:     in.DietGoal,
	}
	for c, v := range in.Conditions {
		user.Set(c, v)
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Authenticate checks a username and password pair.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *AccountService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

// UpdateProfile applies the non-nil fields of in. Past evaluations keep the
// profile they were scored against.
func (s *AccountService) UpdateProfile(ctx context.Context, userID uint, in ProfileUpdate) (*models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		verr.Add("name", "This field may not be blank.")
	}
	if in.Gender != nil {
		validateGender(verr, *in.Gender, true)
	}
	if in.Age != nil {
		validateAge(verr, in.Age, true)
	}
	validatePositive(verr, "height", in.Height, false)
	validatePositive(verr, "weight", in.Weight, false)
	if in.DietGoal != nil {
		validateDietGoal(verr, *in.DietGoal, true)
	}
	if in.Email != nil {
		validateEmail(verr, *in.Email)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if in.Email != nil {
		user.Email = strings.TrimSpace(*in.Email)
	}
	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Gender != nil {
		user.Gender = *in.Gender
	}
	if in.Age != nil {
		user.Age = uint(*in.Age)
	}
	if in.Height != nil {
		user.Height = *in.Height
	}
	if in.Weight != nil {
		user.Weight = *in.Weight
	}
	if in.IsVegetarian != nil {
		user.IsVegetarian = *in.IsVegetarian
	}
	if in.DietGoal != nil {
		user.DietGoal = *in.DietGoal
	}
	for c, v := range in.Conditions {
		user.Set(c, v)
	}

	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

// RequestPasswordReset issues a reset code for username. Unknown users and
// users without an email are not reported to the caller.
func (s *AccountService) RequestPasswordReset(ctx context.Context, username string) error {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	code, err := utils.GenerateResetCode(resetCodeLength)
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}
	err = s.db.WithContext(ctx).Model(&user).Updates(map[string]any{
		"reset_code":     code,
		"reset_code_exp": s.now().Add(resetCodeTTL),
	}).Error
	if err != nil {
		return fmt.Errorf("store reset code: %w", err)
	}

	if user.Email == "" || s.mailer == nil {
		log.Printf("password reset requested for %q but no mail route is available", user.Username)
		return nil
	}
	return s.mailer.SendPasswordReset(ctx, user.Email, code)
}

// ResetPassword sets a new password if code matches and has not expired.
func (s *AccountService) ResetPassword(ctx context.Context, username, code, newPassword string) error {
	if newPassword == "" {
		return &ValidationError{Fields: map[string][]string{"new_password": {"This field is required."}}}
	}
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvalidResetCode
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user.ResetCode == "" || !strings.EqualFold(user.ResetCode, strings.TrimSpace(code)) || s.now().After(user.ResetCodeExp) {
		return ErrInvalidResetCode
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.db.WithContext(ctx).Model(&user).Updates(map[string]any{
		"password":       hash,
		"reset_code":     "",
		"reset_code_exp": time.Time{},
	}).Error
}

func validateGender(verr *ValidationError, g string, required bool) {
	switch g {
	case "M", "F":
	case "":
		if required {
			verr.Add("gender", "This field is required.")
		}
	default:
		verr.Add("gender", fmt.Sprintf("%q is not a valid choice.", g))
	}
}

func validateAge(verr *ValidationError, age *int, required bool) {
	switch {
	case age == nil:
		if required {
			verr.Add("age", "This field is required.")
		}
	case *age <= 0:
		verr.Add("age", "Ensure this value is greater than 0.")
	}
}

func validatePositive(verr *ValidationError, field string, v *float64, required bool) {
	switch {
	case v == nil:
		if required {
			verr.Add(field, "This field is required.")
		}
	case *v <= 0:
		verr.Add(field, "Ensure this value is greater than 0.")
	}
}

func validateDietGoal(verr *ValidationError, goal string, required bool) {
	switch goal {
	case models.DietGoalLoss, models.DietGoalMaintain, models.DietGoalGain:
	case "":
		if required {
			verr.Add("diet_goal", "This field is required.")
		}
	default:
		verr.Add("diet_goal", fmt.Sprintf("%q is not a valid choice.", goal))
	}
}

func validateEmail(verr *ValidationError, email string) {
	email = strings.TrimSpace(email)
	if email == "" {
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		verr.Add("email", "Enter a valid email address.")
	}
}
