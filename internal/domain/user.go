package domain

import "time"

// User is a row of the users table.
type User struct {
	ID        int64
	Name      string
	Email     string
	Age       *int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateUserInput carries the validated fields of a create request.
type CreateUserInput struct {
	Name  string
	Email string
	Age   *int
}

// UpdateUserInput carries the fields of a partial update. A nil pointer means the
// field was not supplied and the stored value is kept.
type UpdateUserInput struct {
	Name  *string
	Email *string
	Age   *int
}

// Empty reports whether no field was supplied.
func (in UpdateUserInput) Empty() bool {
	return in.Name == nil && in.Email == nil && in.Age == nil
}

// Apply merges the supplied fields over u and returns the merged copy.
func (in UpdateUserInput) Apply(u User) User {
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.Age != nil {
		age := *in.Age
		u.Age = &age
	}
	return u
}
