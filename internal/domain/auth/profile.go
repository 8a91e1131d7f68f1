package auth

import "time"

// Profile is the user-facing account information.
type Profile struct {
	ID       string
	Name     string
	Email    string
	Phone    string
	Address  string
	Avatar   string
	JoinDate time.Time
}

// ProfileUpdate carries a partial profile; nil fields are left unchanged.
type ProfileUpdate struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
	Avatar  *string
}

// Apply returns p with the non-nil fields of u merged in.
func (u ProfileUpdate) Apply(p Profile) Profile {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Email != nil {
		p.Email = *u.Email
	}
	if u.Phone != nil {
		p.Phone = *u.Phone
	}
	if u.Address != nil {
		p.Address = *u.Address
	}
	if u.Avatar != nil {
		p.Avatar = *u.Avatar
	}
	return p
}

// ProfileFromUser builds the profile shown after login or signup.
func ProfileFromUser(u *User, joined time.Time) Profile {
	return Profile{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Phone:    u.Phone,
		JoinDate: joined,
	}
}

// DemoProfile is the profile a fresh session starts signed in with.
func DemoProfile(joined time.Time) Profile {
	return Profile{
		ID:       "1",
		Name:     "John Doe",
		Email:    "john@example.com",
		Phone:    "+1234567890",
		Address:  "123 Main St, City, Country",
		Avatar:   "https://via.placeholder.com/150",
		JoinDate: joined,
	}
}
