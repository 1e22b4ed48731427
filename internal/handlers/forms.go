package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/form/v4"

	"github.com/crucial707/pokecollect/internal/models"
	"github.com/crucial707/pokecollect/internal/service"
)

var formDecoder = form.NewDecoder()

// Form fields stay strings so a rejected submission can be echoed back as typed.

type credentialsForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
	Next     string `form:"next"`
}

func (f credentialsForm) credentials() service.Credentials {
	return service.Credentials{Username: f.Username, Password: f.Password}
}

type statsForm struct {
	CP  string `form:"cp"`
	Atk string `form:"atk"`
	Dfn string `form:"dfn"`
	HP  string `form:"hp"`
}

func statsFormFrom(s models.Stats) statsForm {
	return statsForm{
		CP:  strconv.Itoa(s.CP),
		Atk: strconv.Itoa(s.Atk),
		Dfn: strconv.Itoa(s.Dfn),
		HP:  strconv.Itoa(s.HP),
	}
}

type addForm struct {
	Name string `form:"name"`
	CP   string `form:"cp"`
	Atk  string `form:"atk"`
	Dfn  string `form:"dfn"`
	HP   string `form:"hp"`
}

func (f addForm) stats() statsForm {
	return statsForm{CP: f.CP, Atk: f.Atk, Dfn: f.Dfn, HP: f.HP}
}

// decodeForm parses a urlencoded body into dst.
func decodeForm(r *http.Request, dst any) error {
	if err := r.ParseForm(); err != nil {
		return err
	}
	return formDecoder.Decode(dst, r.PostForm)
}

// formError answers a body that could not be decoded: 413 when it ran past
// the MaxBytes limit, 400 otherwise.
func formError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		http.Error(w, "form too large", http.StatusRequestEntityTooLarge)
		return
	}
	http.Error(w, "invalid form", http.StatusBadRequest)
}

// parse converts the submitted numbers. Range checks are left to the service.
func (f statsForm) parse() (service.StatsInput, map[string]string) {
	fields := map[string]string{}
	var in service.StatsInput
	in.CP = parseInt(f.CP, "cp", fields)
	in.Atk = parseInt(f.Atk, "atk", fields)
	in.Dfn = parseInt(f.Dfn, "dfn", fields)
	in.HP = parseInt(f.HP, "hp", fields)
	return in, fields
}

func parseInt(raw, field string, fields map[string]string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		fields[field] = "required"
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		fields[field] = "must be a whole number"
		return 0
	}
	return n
}

// safeNext keeps post-login redirects on this site: only a relative reference
// with an absolute path is accepted. Browsers drop tabs and newlines and read
// a backslash as a slash, so any of those disqualifies the value.
func safeNext(next string) string {
	const home = "/user/pokemon"
	if !strings.HasPrefix(next, "/") || strings.ContainsRune(next, '\\') {
		return home
	}
	for i := 0; i < len(next); i++ {
		if next[i] < 0x20 || next[i] == 0x7f {
			return home
		}
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Opaque != "" ||
		!strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return home
	}
	return next
}
