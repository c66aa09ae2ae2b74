package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/parkingtime-identity/internal/domain/entity"
	"github.com/oksasatya/parkingtime-identity/internal/domain/repository"
)

type userRepo struct{ v view }

func (r *userRepo) Create(_ context.Context, u *entity.User) error {
	defer r.v.lock()()
	st := r.v.st()
	for _, existing := range st.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.UpdatedAt = u.CreatedAt
	st.users[u.ID] = copyUser(*u)
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	defer r.v.lock()()
	u, ok := r.v.st().users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := copyUser(u)
	return &c, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	defer r.v.lock()()
	return r.byEmail(email)
}

func (r *userRepo) GetByEmailForUpdate(_ context.Context, email string) (*entity.User, error) {
	defer r.v.lock()()
	return r.byEmail(email)
}

func (r *userRepo) byEmail(email string) (*entity.User, error) {
	for _, u := range r.v.st().users {
		if u.Email == email {
			c := copyUser(u)
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	defer r.v.lock()()
	_, err := r.byEmail(email)
	return err == nil, nil
}

func (r *userRepo) ExistsByName(_ context.Context, firstName, lastName string) (bool, error) {
	defer r.v.lock()()
	for _, u := range r.v.st().users {
		if u.FirstName == firstName && u.LastName == lastName {
			return true, nil
		}
	}
	return false, nil
}

func (r *userRepo) UpdatePassword(_ context.Context, id, hash string, at time.Time) error {
	defer r.v.lock()()
	st := r.v.st()
	u, ok := st.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Password = hash
	u.UpdatedAt = at
	st.users[id] = u
	return nil
}

type roleRepo struct{ v view }

func (r *roleRepo) GetByName(_ context.Context, name entity.RoleName) (*entity.Role, error) {
	defer r.v.lock()()
	role, ok := r.v.st().roles[name]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &role, nil
}

func (r *roleRepo) EnsureRoles(_ context.Context, names []entity.RoleName) error {
	defer r.v.lock()()
	st := r.v.st()
	for _, name := range names {
		if _, ok := st.roles[name]; ok {
			continue
		}
		st.roles[name] = entity.Role{ID: uuid.NewString(), Name: name, CreatedAt: time.Now().UTC()}
	}
	return nil
}

type tokenRepo struct{ v view }

func (r *tokenRepo) Create(_ context.Context, t *entity.ResetToken) error {
	defer r.v.lock()()
	st := r.v.st()
	for _, existing := range st.tokens {
		if existing.Token == t.Token {
			return repository.ErrDuplicate
		}
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	st.tokens = append(st.tokens, copyToken(*t))
	return nil
}

func (r *tokenRepo) FindLatestByUserID(_ context.Context, userID string) (*entity.ResetToken, error) {
	defer r.v.lock()()
	var latest *entity.ResetToken
	for i := range r.v.st().tokens {
		t := &r.v.st().tokens[i]
		if t.UserID != userID {
			continue
		}
		if latest == nil || !t.CreatedAt.Before(latest.CreatedAt) {
			latest = t
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	c := copyToken(*latest)
	return &c, nil
}

func (r *tokenRepo) FindByTokenForUpdate(_ context.Context, token string) (*entity.ResetToken, error) {
	defer r.v.lock()()
	for _, t := range r.v.st().tokens {
		if t.Token == token {
			c := copyToken(t)
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *tokenRepo) ExistsByToken(_ context.Context, token string) (bool, error) {
	defer r.v.lock()()
	for _, t := range r.v.st().tokens {
		if t.Token == token {
			return true, nil
		}
	}
	return false, nil
}

func (r *tokenRepo) MarkUsed(_ context.Context, id string, at time.Time) error {
	defer r.v.lock()()
	st := r.v.st()
	for i := range st.tokens {
		if st.tokens[i].ID == id {
			consumed := at
			st.tokens[i].Used = true
			st.tokens[i].ConsumedAt = &consumed
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *tokenRepo) DeleteCreatedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	defer r.v.lock()()
	st := r.v.st()
	kept := st.tokens[:0]
	var deleted int64
	for _, t := range st.tokens {
		if !t.CreatedAt.After(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, t)
	}
	st.tokens = kept
	return deleted, nil
}

type historyRepo struct{ v view }

func (r *historyRepo) Create(_ context.Context, h *entity.ResetHistory) error {
	defer r.v.lock()()
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	r.v.st().history = append(r.v.st().history, *h)
	return nil
}

func (r *historyRepo) ListByUserID(_ context.Context, userID string) ([]entity.ResetHistory, error) {
	defer r.v.lock()()
	var out []entity.ResetHistory
	for _, h := range r.v.st().history {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type verificationRepo struct{ v view }

func (r *verificationRepo) Upsert(_ context.Context, v *entity.EmailVerification) error {
	defer r.v.lock()()
	st := r.v.st()
	if existing, ok := st.verifications[v.UserID]; ok {
		v.ID = existing.ID
	} else if v.ID == "" {
		v.ID = uuid.NewString()
	}
	st.verifications[v.UserID] = copyVerification(*v)
	return nil
}

func (r *verificationRepo) FindByUserID(_ context.Context, userID string) (*entity.EmailVerification, error) {
	defer r.v.lock()()
	return r.byUser(userID)
}

func (r *verificationRepo) FindByUserIDForUpdate(_ context.Context, userID string) (*entity.EmailVerification, error) {
	defer r.v.lock()()
	return r.byUser(userID)
}

func (r *verificationRepo) byUser(userID string) (*entity.EmailVerification, error) {
	v, ok := r.v.st().verifications[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := copyVerification(v)
	return &c, nil
}

func (r *verificationRepo) Update(_ context.Context, v *entity.EmailVerification) error {
	defer r.v.lock()()
	st := r.v.st()
	existing, ok := st.verifications[v.UserID]
	if !ok || existing.ID != v.ID {
		return repository.ErrNotFound
	}
	st.verifications[v.UserID] = copyVerification(*v)
	return nil
}
