package group

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"workervoucher/internal/domain/auth"
	"workervoucher/internal/domain/employer"
	"workervoucher/internal/domain/worker"
)

var (
	ErrEmptyName        = errors.New("group name is required")
	ErrNotFound         = errors.New("group not found")
	ErrEmployerNotFound = errors.New("economic unit not found")
)

type Service struct {
	Store     *Store
	Employers *employer.Store
	Workers   *worker.Store
	Perms     worker.CapabilityChecker
}

func NewService(store *Store, employers *employer.Store, workers *worker.Store, perms worker.CapabilityChecker) *Service {
	return &Service{Store: store, Employers: employers, Workers: workers, Perms: perms}
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

// resolveMembers maps national ids to affiliated workers. Unknown ids fail
// the whole change so a group never silently loses a member.
func (s *Service) resolveMembers(ctx context.Context, user auth.UserContext, employerCode string, nationalIDs []string, searchAll bool) ([]string, error) {
	ids := make([]string, 0, len(nationalIDs))
	seen := make(map[string]struct{}, len(nationalIDs))
	for _, nid := range nationalIDs {
		if _, dup := seen[nid]; dup {
			continue
		}
		seen[nid] = struct{}{}

		w, err := s.Workers.FindByNationalID(ctx, nid, employerCode, user.UserID, searchAll)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, worker.ErrNotFound
			}
			return nil, err
		}
		ids = append(ids, w.ID)
	}
	return ids, nil
}

// Create makes a group and sets its membership in one transaction.
func (s *Service) Create(ctx context.Context, user auth.UserContext, employerCode, name string, nationalIDs []string) (Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Group{}, ErrEmptyName
	}
	emp, all, err := s.resolveEmployer(ctx, user, employerCode)
	if err != nil {
		return Group{}, err
	}
	memberIDs, err := s.resolveMembers(ctx, user, employerCode, nationalIDs, all)
	if err != nil {
		return Group{}, err
	}

	tx, err := s.Store.BeginTx(ctx)
	if err != nil {
		return Group{}, err
	}
	defer tx.Rollback(ctx)

	id, err := s.Store.CreateTx(ctx, tx, name, emp.ID)
	if err != nil {
		return Group{}, err
	}
	if err := s.Store.ReplaceMembersTx(ctx, tx, id, memberIDs); err != nil {
		return Group{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Group{}, err
	}
	return s.Store.ByID(ctx, id)
}

// Update renames a group and replaces its membership in one transaction.
func (s *Service) Update(ctx context.Context, user auth.UserContext, employerCode, groupID, name string, nationalIDs []string) (Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Group{}, ErrEmptyName
	}
	emp, all, err := s.resolveEmployer(ctx, user, employerCode)
	if err != nil {
		return Group{}, err
	}
	current, err := s.Store.ByID(ctx, groupID)
	if err != nil || current.EmployerID != emp.ID {
		return Group{}, ErrNotFound
	}
	memberIDs, err := s.resolveMembers(ctx, user, employerCode, nationalIDs, all)
	if err != nil {
		return Group{}, err
	}

	tx, err := s.Store.BeginTx(ctx)
	if err != nil {
		return Group{}, err
	}
	defer tx.Rollback(ctx)

	if err := s.Store.RenameTx(ctx, tx, groupID, name); err != nil {
		return Group{}, err
	}
	if err := s.Store.ReplaceMembersTx(ctx, tx, groupID, memberIDs); err != nil {
		return Group{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Group{}, err
	}
	return s.Store.ByID(ctx, groupID)
}

func (s *Service) Get(ctx context.Context, user auth.UserContext, employerCode, groupID string) (Group, error) {
	emp, _, err := s.resolveEmployer(ctx, user, employerCode)
	if err != nil {
		return Group{}, err
	}
	g, err := s.Store.ByID(ctx, groupID)
	if err != nil || g.EmployerID != emp.ID {
		return Group{}, ErrNotFound
	}
	return g, nil
}

func (s *Service) List(ctx context.Context, user auth.UserContext, employerCode string) ([]Group, error) {
	emp, _, err := s.resolveEmployer(ctx, user, employerCode)
	if err != nil {
		return nil, err
	}
	return s.Store.ListByEmployer(ctx, emp.ID)
}

func (s *Service) Delete(ctx context.Context, user auth.UserContext, employerCode, groupID string) error {
	if _, err := s.Get(ctx, user, employerCode, groupID); err != nil {
		return err
	}
	return s.Store.SoftDelete(ctx, groupID)
}
