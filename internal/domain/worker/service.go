package worker

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"workervoucher/internal/domain/auth"
	"workervoucher/internal/domain/employer"
	"workervoucher/internal/platform/config"
)

// Profile is a worker record as held by the external identity registry.
type Profile struct {
	NationalID  string     `json:"nationalId"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
}

// Registry looks workers up in the external identity registry. Lookup returns
// ErrNotFound when the registry has no record for the id.
type Registry interface {
	Lookup(ctx context.Context, nationalID string) (Profile, error)
}

// CapabilityChecker answers whether a role holds a permission.
type CapabilityChecker interface {
	HasPermission(ctx context.Context, roleID, permission string) (bool, error)
}

type Service struct {
	Cfg       config.Config
	Store     *Store
	Employers *employer.Store
	Registry  Registry
	Perms     CapabilityChecker
}

func NewService(cfg config.Config, store *Store, employers *employer.Store, registry Registry, perms CapabilityChecker) *Service {
	return &Service{Cfg: cfg, Store: store, Employers: employers, Registry: registry, Perms: perms}
}

type RegisterInput struct {
	NationalID  string     `json:"nationalId"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
}

func (s *Service) resolveEmployer(ctx context.Context, user auth.UserContext, code string) (employer.Employer, bool, error) {
	all, err := s.Perms.HasPermission(ctx, user.RoleID, auth.PermVoucherSearchAll)
	if err != nil {
		return employer.Employer{}, false, err
	}
	emp, err := s.Employers.FindByCode(ctx, code, user.UserID, all)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employer.Employer{}, false, ErrEmployerNotFound
		}
		return employer.Employer{}, false, err
	}
	return emp, all, nil
}

// Register affiliates a worker with an employer, creating the worker row if
// the national id has never been seen. With verification on, the id must
// resolve in the external registry first.
func (s *Service) Register(ctx context.Context, user auth.UserContext, employerCode string, in RegisterInput) (Worker, error) {
	if !ValidNationalID(in.NationalID) {
		return Worker{}, ErrInvalidNationalID
	}
	emp, _, err := s.resolveEmployer(ctx, user, employerCode)
	if err != nil {
		return Worker{}, err
	}

	if s.Cfg.WorkerVerificationOn {
		profile, err := s.Registry.Lookup(ctx, in.NationalID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return Worker{}, ErrNotVerified
			}
			return Worker{}, err
		}
		// Registry data wins over caller-supplied names.
		in.FirstName = profile.FirstName
		in.LastName = profile.LastName
		if profile.DateOfBirth != nil {
			in.DateOfBirth = profile.DateOfBirth
		}
	}

	w, err := s.Store.FindAny(ctx, in.NationalID)
	switch {
	case err == nil:
		affiliated, err := s.Store.HasActiveAffiliation(ctx, w.ID, emp.ID)
		if err != nil {
			return Worker{}, err
		}
		if affiliated {
			return Worker{}, ErrAlreadyRegistered
		}
	case errors.Is(err, pgx.ErrNoRows):
		w = Worker{
			NationalID:  in.NationalID,
			FirstName:   in.FirstName,
			LastName:    in.LastName,
			DateOfBirth: in.DateOfBirth,
		}
		w.ID, err = s.Store.Create(ctx, w)
		if err != nil {
			return Worker{}, err
		}
	default:
		return Worker{}, err
	}

	if err := s.Store.CreateAffiliation(ctx, w.ID, emp.ID); err != nil {
		return Worker{}, err
	}
	return w, nil
}

// Remove ends the worker's affiliation with the employer. Voucher history is
// untouched.
func (s *Service) Remove(ctx context.Context, user auth.UserContext, employerCode, nationalID string) error {
	emp, all, err := s.resolveEmployer(ctx, user, employerCode)
	if err != nil {
		return err
	}
	w, err := s.Store.FindByNationalID(ctx, nationalID, employerCode, user.UserID, all)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return s.Store.RemoveAffiliation(ctx, w.ID, emp.ID)
}

// List returns workers visible to the caller, optionally narrowed to one
// employer.
func (s *Service) List(ctx context.Context, user auth.UserContext, employerCode string) ([]Worker, error) {
	all, err := s.Perms.HasPermission(ctx, user.RoleID, auth.PermVoucherSearchAll)
	if err != nil {
		return nil, err
	}
	return s.Store.List(ctx, BuildVisibilityFilter(user.UserID, all, employerCode))
}

// Previous lists workers who held vouchers at the employer in the past.
func (s *Service) Previous(ctx context.Context, user auth.UserContext, employerCode string) ([]Worker, error) {
	emp, _, err := s.resolveEmployer(ctx, user, employerCode)
	if err != nil {
		return nil, err
	}
	return s.Store.PreviousWorkers(ctx, emp.Code)
}

// Enquire resolves a national id, preferring the local table and falling back
// to the external registry when verification is configured.
func (s *Service) Enquire(ctx context.Context, nationalID string) (Profile, error) {
	if !ValidNationalID(nationalID) {
		return Profile{}, ErrInvalidNationalID
	}
	w, err := s.Store.FindAny(ctx, nationalID)
	if err == nil {
		return Profile{NationalID: w.NationalID, FirstName: w.FirstName, LastName: w.LastName, DateOfBirth: w.DateOfBirth}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, err
	}
	if s.Cfg.WorkerVerificationOn {
		profile, err := s.Registry.Lookup(ctx, nationalID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return Profile{}, ErrNotFound
			}
			return Profile{}, err
		}
		return profile, nil
	}
	return Profile{}, ErrNotFound
}
