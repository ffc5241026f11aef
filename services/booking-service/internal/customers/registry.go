package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hanguang-studio/salonbook/libs/validation"
	"github.com/hanguang-studio/salonbook/services/booking-service/internal/model"
	"github.com/hanguang-studio/salonbook/services/booking-service/internal/storage"
)

var (
	ErrNotFound          = errors.New("customer not found")
	ErrAlreadyRegistered = errors.New("phone number already registered")
)

type Store interface {
	Get(ctx context.Context, phone string) (model.Customer, error)
	Insert(ctx context.Context, c model.Customer) error
	Update(ctx context.Context, c model.Customer) error
}

type UpcomingSource interface {
	ListUpcoming(ctx context.Context, phone, fromDate string) ([]model.Appointment, error)
}

// Registration is the sign-up form. Phone is the natural key.
type Registration struct {
	Phone      string `json:"phone" validate:"required,phone"`
	Name       string `json:"name" validate:"required,max=50"`
	Birthday   string `json:"birthday" validate:"required,date"`
	LineID     string `json:"line_id" validate:"required,max=50"`
	Occupation string `json:"occupation" validate:"max=50"`
	Address    string `json:"address" validate:"max=200"`
}

// ValidationError carries per-field failures for the caller to render.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid registration: %d field(s)", len(e.Fields))
}

type Profile struct {
	Customer     model.Customer      `json:"customer"`
	Appointments []model.Appointment `json:"upcoming_appointments"`
}

type Registry struct {
	store    Store
	upcoming UpcomingSource
	validate *validation.Validator
	loc      *time.Location
}

func NewRegistry(store Store, upcoming UpcomingSource, v *validation.Validator, loc *time.Location) *Registry {
	if loc == nil {
		loc = time.UTC
	}
	return &Registry{store: store, upcoming: upcoming, validate: v, loc: loc}
}

// Register creates the customer or, when the phone is already known, updates the profile.
// It reports whether a new customer was created.
func (r *Registry) Register(ctx context.Context, reg Registration) (model.Customer, bool, error) {
	reg = normalize(reg)
	if err := r.validate.Struct(reg); err != nil {
		if fields := validation.Details(err); fields != nil {
			return model.Customer{}, false, &ValidationError{Fields: fields}
		}
		return model.Customer{}, false, err
	}

	c := model.Customer{
		Phone:      reg.Phone,
		Name:       reg.Name,
		Birthday:   reg.Birthday,
		LineID:     reg.LineID,
		Occupation: reg.Occupation,
		Address:    reg.Address,
	}

	_, err := r.store.Get(ctx, reg.Phone)
	switch {
	case err == nil:
		if err := r.store.Update(ctx, c); err != nil {
			return model.Customer{}, false, err
		}
		return c, false, nil
	case errors.Is(err, storage.ErrNotFound):
		if err := r.store.Insert(ctx, c); err != nil {
			if errors.Is(err, storage.ErrConflict) {
				return model.Customer{}, false, ErrAlreadyRegistered
			}
			return model.Customer{}, false, err
		}
		return c, true, nil
	default:
		return model.Customer{}, false, err
	}
}

// Lookup verifies a phone number and returns the customer's upcoming pending or confirmed
// appointments. Appointments earlier today are left out.
func (r *Registry) Lookup(ctx context.Context, phone string, now time.Time) (Profile, error) {
	phone = strings.TrimSpace(phone)
	if err := r.validate.Var(phone, "required,phone"); err != nil {
		return Profile{}, &ValidationError{Fields: map[string]string{"phone": "phone"}}
	}
	c, err := r.store.Get(ctx, phone)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}

	local := now.In(r.loc)
	today := local.Format(time.DateOnly)
	nowClock := local.Format("15:04")
	appts, err := r.upcoming.ListUpcoming(ctx, phone, today)
	if err != nil {
		return Profile{}, err
	}
	upcoming := make([]model.Appointment, 0, len(appts))
	for _, a := range appts {
		if a.Date == today && a.StartTime < nowClock {
			continue
		}
		upcoming = append(upcoming, a)
	}
	return Profile{Customer: c, Appointments: upcoming}, nil
}

func normalize(reg Registration) Registration {
	reg.Phone = strings.TrimSpace(reg.Phone)
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Birthday = strings.TrimSpace(reg.Birthday)
	reg.LineID = strings.TrimSpace(reg.LineID)
	reg.Occupation = strings.TrimSpace(reg.Occupation)
	reg.Address = strings.TrimSpace(reg.Address)
	return reg
}
