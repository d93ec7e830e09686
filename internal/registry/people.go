package registry

import (
	"context"

	"dormitory-backend/internal/apperr"
	"dormitory-backend/internal/lock"
	"dormitory-backend/internal/model"
	"dormitory-backend/internal/store"
	"dormitory-backend/internal/validate"
)

func normalizeStudent(s *model.Student) {
	s.Surname = trim(s.Surname)
	s.Name = trim(s.Name)
	s.Patronymic = trimPtr(s.Patronymic)
	s.Phone = trim(s.Phone)
	s.Email = trimPtr(s.Email)
	s.Group = trim(s.Group)
}

func validateStudent(s model.Student) error {
	v := validate.New()
	v.Name("surname", s.Surname)
	v.Name("name", s.Name)
	v.OptionalName("patronymic", s.Patronymic)
	v.Gender("gender", s.Gender)
	v.Phone("phone", s.Phone)
	v.Email("email", s.Email)
	v.Required("group", s.Group, validate.MaxGroupLen)
	return v.Err()
}

// CreateStudent validates and stores a new student. s.ID is set on success.
func (r *Registry) CreateStudent(ctx context.Context, s *model.Student) error {
	s.ID = 0
	normalizeStudent(s)
	if err := validateStudent(*s); err != nil {
		return err
	}
	return apperr.Logged("create student", r.store.CreateStudent(ctx, s))
}

// UpdateStudent replaces the editable fields of student id. The gender of a
// student with an active checkin cannot change, since that could leave a
// mixed room behind.
func (r *Registry) UpdateStudent(ctx context.Context, id int64, in model.Student) (model.Student, error) {
	normalizeStudent(&in)
	if err := validateStudent(in); err != nil {
		return model.Student{}, err
	}

	var out model.Student
	err := r.locked(ctx, "update student", []string{lock.StudentKey(id)}, func(tx store.Store) error {
		cur, err := tx.GetStudent(ctx, id)
		if err != nil {
			return err
		}
		if cur.Gender != in.Gender {
			active, err := tx.ActiveCheckinForStudent(ctx, id)
			if err != nil {
				return err
			}
			if active != nil {
				return apperr.NewValidation("gender", "нельзя изменить пол заселённого студента")
			}
		}
		cur.Surname, cur.Name, cur.Patronymic = in.Surname, in.Name, in.Patronymic
		cur.Gender, cur.Phone, cur.Email, cur.Group = in.Gender, in.Phone, in.Email, in.Group
		if err := tx.UpdateStudent(ctx, &cur); err != nil {
			return err
		}
		out = cur
		return nil
	})
	return out, err
}

// GetStudent returns student id.
func (r *Registry) GetStudent(ctx context.Context, id int64) (model.Student, error) {
	s, err := r.store.GetStudent(ctx, id)
	return s, apperr.Logged("get student", err)
}

// ListStudents lists students matching f.
func (r *Registry) ListStudents(ctx context.Context, f store.StudentFilter) ([]model.Student, error) {
	if f.Gender != "" && !f.Gender.Valid() {
		return nil, apperr.NewValidation("gender", "пол должен быть 'М' или 'Ж'")
	}
	students, err := r.store.ListStudents(ctx, f)
	return students, apperr.Logged("list students", err)
}

func normalizeCommandant(c *model.Commandant) {
	c.Surname = trim(c.Surname)
	c.Name = trim(c.Name)
	c.Patronymic = trimPtr(c.Patronymic)
	c.Phone = trim(c.Phone)
}

func validateCommandant(c model.Commandant) error {
	v := validate.New()
	v.Name("surname", c.Surname)
	v.Name("name", c.Name)
	v.OptionalName("patronymic", c.Patronymic)
	v.Phone("phone", c.Phone)
	return v.Err()
}

// CreateCommandant validates and stores a new commandant.
func (r *Registry) CreateCommandant(ctx context.Context, c *model.Commandant) error {
	c.ID = 0
	normalizeCommandant(c)
	if err := validateCommandant(*c); err != nil {
		return err
	}
	return apperr.Logged("create commandant", r.store.CreateCommandant(ctx, c))
}

// UpdateCommandant replaces the editable fields of commandant id.
func (r *Registry) UpdateCommandant(ctx context.Context, id int64, in model.Commandant) (model.Commandant, error) {
	normalizeCommandant(&in)
	if err := validateCommandant(in); err != nil {
		return model.Commandant{}, err
	}

	var out model.Commandant
	err := r.locked(ctx, "update commandant", []string{lock.CommandantKey(id)}, func(tx store.Store) error {
		cur, err := tx.GetCommandant(ctx, id)
		if err != nil {
			return err
		}
		cur.Surname, cur.Name, cur.Patronymic, cur.Phone = in.Surname, in.Name, in.Patronymic, in.Phone
		if err := tx.UpdateCommandant(ctx, &cur); err != nil {
			return err
		}
		out = cur
		return nil
	})
	return out, err
}

// GetCommandant returns commandant id.
func (r *Registry) GetCommandant(ctx context.Context, id int64) (model.Commandant, error) {
	c, err := r.store.GetCommandant(ctx, id)
	return c, apperr.Logged("get commandant", err)
}

// ListCommandants lists all commandants.
func (r *Registry) ListCommandants(ctx context.Context) ([]model.Commandant, error) {
	list, err := r.store.ListCommandants(ctx)
	return list, apperr.Logged("list commandants", err)
}
