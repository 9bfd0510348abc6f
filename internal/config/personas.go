package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Persona identifies one of the demo shop's user types.
type Persona string

const (
	Standard Persona = "standard"
	Locked   Persona = "locked"
	Error    Persona = "error"
	Problem  Persona = "problem"
	Glitch   Persona = "glitch"
)

// PasswordEnv is the variable holding the password shared by all personas.
const PasswordEnv = "commonPassword"

var usernameEnv = map[Persona]string{
	Standard: "standardUserName",
	Locked:   "lockedUserName",
	Error:    "errorUser",
	Problem:  "problemUser",
	Glitch:   "glitchUser",
}

var descriptions = map[Persona]string{
	Standard: "standard user",
	Locked:   "locked out user",
	Error:    "error user",
	Problem:  "problem user",
	Glitch:   "performance glitch user",
}

var dotenvOnce sync.Once

// Credentials is a username/password pair taken from the environment.
type Credentials struct {
	Username string
	Password string
}

// AllPersonas returns the personas in a stable order.
func AllPersonas() []Persona {
	return []Persona{Standard, Locked, Error, Problem, Glitch}
}

// ParsePersona accepts a persona name, case-insensitive.
func ParsePersona(s string) (Persona, error) {
	p := Persona(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := usernameEnv[p]; !ok {
		return "", fmt.Errorf("unknown persona %q", s)
	}
	return p, nil
}

// UsernameEnv returns the environment variable holding the persona's username.
func (p Persona) UsernameEnv() string {
	return usernameEnv[p]
}

// DisplayName returns a human readable name, e.g. "Performance Glitch User".
func (p Persona) DisplayName() string {
	d, ok := descriptions[p]
	if !ok {
		d = string(p)
	}
	return cases.Title(language.English).String(d)
}

// Credentials reads the persona's credentials. Missing variables yield
// empty strings; they are passed on to the login form as they are.
func (p Persona) Credentials() Credentials {
	LoadDotEnv()
	return Credentials{
		Username: os.Getenv(p.UsernameEnv()),
		Password: os.Getenv(PasswordEnv),
	}
}

// LoadDotEnv loads .env (or the given files) once. Existing environment
// variables take precedence and are not overwritten.
func LoadDotEnv(paths ...string) {
	dotenvOnce.Do(func() {
		if len(paths) == 0 {
			paths = []string{".env"}
		}
		for _, p := range paths {
			if _, err := os.Stat(p); err != nil {
				continue
			}
			_ = godotenv.Load(p)
		}
	})
}
