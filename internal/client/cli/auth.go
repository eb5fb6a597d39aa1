package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vitalkeeper/internal/client/models"
	"github.com/dmitrijs2005/vitalkeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// ask returns preset when it is not empty and prompts otherwise.
func (a *App) ask(preset, prompt string) (string, error) {
	if preset != "" {
		return preset, nil
	}
	return getSimpleText(a.reader, prompt, a.out)
}

// Signup creates an account on this device and logs it in. Empty email or
// name are prompted for; the password is always prompted for and wiped
// afterwards.
func (a *App) Signup(ctx context.Context, email, name string) error {
	email, err := a.ask(email, "Enter email")
	if err != nil {
		return err
	}
	name, err = a.ask(name, "Enter name")
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.session.Signup(ctx, email, string(password), name); err != nil {
		a.log.Error(ctx, "signup failed", "error", err)
		return err
	}

	fmt.Fprintln(a.out, "Welcome,", name+"!")
	return nil
}

// Login authenticates email with a password read from the terminal.
func (a *App) Login(ctx context.Context, email string) error {
	email, err := a.ask(email, "Enter email")
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.session.Login(ctx, email, string(password)); err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidCredentials):
			fmt.Fprintln(a.out, "Invalid email or password")
		case errors.Is(err, common.ErrProfileNotFound):
			fmt.Fprintln(a.out, "No profile on this device, please sign up again")
		default:
			a.log.Error(ctx, "login failed", "error", err)
		}
		return err
	}

	fmt.Fprintln(a.out, "Login successful")
	return nil
}

// Logout ends the session and removes the local profile.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// WhoAmI prints the current user, and the session id when a session was
// started during this run.
func (a *App) WhoAmI(ctx context.Context) error {
	u, ok := a.session.CurrentUser()
	if !ok {
		fmt.Fprintln(a.out, "Not logged in")
		return common.ErrNotLoggedIn
	}
	fmt.Fprintf(a.out, "%s <%s>\n", u.Name, u.Email)
	if sum, found := a.sessionSummary(ctx); found && sum.ID == u.ID {
		fmt.Fprintf(a.out, "Session: %s\n", sum.ID)
	}
	return nil
}

// Update changes the name and/or email of the current user. Nil fields are
// prompted for; an empty answer keeps the current value.
func (a *App) Update(ctx context.Context, name, email *string) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Not logged in")
		return common.ErrNotLoggedIn
	}

	var upd models.ProfileUpdate
	if name == nil && email == nil {
		n, err := getSimpleText(a.reader, "New name (empty to keep)", a.out)
		if err != nil {
			return err
		}
		e, err := getSimpleText(a.reader, "New email (empty to keep)", a.out)
		if err != nil {
			return err
		}
		if n != "" {
			upd.Name = &n
		}
		if e != "" {
			upd.Email = &e
		}
	} else {
		upd.Name, upd.Email = name, email
	}

	if upd.IsEmpty() {
		fmt.Fprintln(a.out, "Nothing to update")
		return nil
	}

	if err := a.session.UpdateProfile(ctx, upd); err != nil {
		a.log.Error(ctx, "profile update failed", "error", err)
		return err
	}
	fmt.Fprintln(a.out, "Profile updated")
	return nil
}
