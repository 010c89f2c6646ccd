package validator

import (
	"net/mail"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	MaxPostLength    = 2000
	MaxCommentLength = 1000
	MaxBioLength     = 280
	// bcrypt ignores everything past 72 bytes
	MaxPasswordBytes = 72
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return strings.Join(parts, "; ")
}

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

func ValidateRegister(username, email, password string) ValidationErrors {
	errs := make(ValidationErrors)

	// Username
	username = strings.TrimSpace(username)
	if username == "" {
		errs.Add("username", "Username is required")
	} else if len(username) > 50 {
		errs.Add("username", "Username is too long")
	} else if !usernameRegex.MatchString(username) {
		errs.Add("username", "Username can only contain letters, numbers, ., _ and -")
	}

	// Email
	validateEmail(email, errs)

	// Password
	if password == "" {
		errs.Add("password", "Password is required")
	} else if len(password) > MaxPasswordBytes {
		errs.Add("password", "Password is too long")
	}

	return errs
}

func ValidateLogin(email, password string) ValidationErrors {
	errs := make(ValidationErrors)

	validateEmail(email, errs)

	if password == "" {
		errs.Add("password", "Password is required")
	}

	return errs
}

func ValidatePost(text string) ValidationErrors {
	return validateText(text, "Post", MaxPostLength)
}

func ValidateComment(text string) ValidationErrors {
	return validateText(text, "Comment", MaxCommentLength)
}

// ValidateProfile checks only the fields that are being changed.
func ValidateProfile(bio, profilePicture *string) ValidationErrors {
	errs := make(ValidationErrors)

	if bio != nil && utf8.RuneCountInString(*bio) > MaxBioLength {
		errs.Add("bio", "Bio must be at most 280 characters")
	}

	if profilePicture != nil && *profilePicture != "" {
		u, err := url.Parse(*profilePicture)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs.Add("profilePicture", "Profile picture must be an http(s) URL")
		}
	}

	return errs
}

func validateEmail(email string, errs ValidationErrors) {
	email = strings.TrimSpace(email)
	if email == "" {
		errs.Add("email", "Email is required")
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		// only a bare address is accepted; "Name <a@b>" would name someone else's mailbox
		errs.Add("email", "Invalid email address")
	}
}

func validateText(text, what string, max int) ValidationErrors {
	errs := make(ValidationErrors)

	text = strings.TrimSpace(text)
	if text == "" {
		errs.Add("text", what+" text is required")
	} else if utf8.RuneCountInString(text) > max {
		errs.Add("text", what+" text is too long")
	}

	return errs
}
