package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"recipe-catalog/internal/app"
	"recipe-catalog/internal/mealplan"
	"recipe-catalog/internal/metrics"
	"recipe-catalog/internal/recipe"
	"recipe-catalog/internal/session"
	"recipe-catalog/internal/view"
)

var tabLabels = map[session.Tab]string{
	session.TabHome:      "Home",
	session.TabRecipes:   "Recipes",
	session.TabPlanner:   "Planner",
	session.TabFavorites: "Favorites",
}

var funcs = template.FuncMap{
	"tabLabel":   func(t session.Tab) string { return tabLabels[t] },
	"fieldError": func(f *formState, mode, field string) string {
		if f == nil || f.Mode != mode || f.Field != field {
			return ""
		}
		return f.Message
	},
}

// formState carries a rejected login or registration back into the dialog.
type formState struct {
	Mode    string
	Field   string
	Message string
	Name    string
	Email   string
}

type pageData struct {
	View         view.Result
	Tabs         []session.Tab
	UserName     string
	Categories   []recipe.CategoryOption
	Difficulties []string
	Meals        []mealplan.MealTime
	Form         *formState
	Notice       string
}

func filterFromQuery(r *http.Request) recipe.Filter {
	q := r.URL.Query()
	return recipe.Filter{
		Query:      q.Get("q"),
		Category:   q.Get("category"),
		Difficulty: q.Get("difficulty"),
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, form *formState, notice string) {
	res, sess, err := s.app.View(r.Context(), sessionID(r), filterFromQuery(r))
	if err != nil {
		s.serverError(w, err)
		return
	}

	data := pageData{
		View:         res,
		Tabs:         session.Tabs,
		UserName:     sess.DisplayName(),
		Categories:   recipe.CategoryOptions,
		Difficulties: recipe.DifficultyOptions,
		Meals:        mealplan.MealTimes,
		Form:         form,
		Notice:       notice,
	}

	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "index.html", data); err != nil {
		s.serverError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, nil, "")
}

func (s *Server) handleAPIView(w http.ResponseWriter, r *http.Request) {
	res, _, err := s.app.View(r.Context(), sessionID(r), filterFromQuery(r))
	if err != nil {
		s.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Health())
}

func (s *Server) handleTab(w http.ResponseWriter, r *http.Request) {
	_, err := s.app.SetTab(r.Context(), sessionID(r), r.PathValue("tab"))
	s.finish(w, r, err, nil)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	_, err := s.app.Login(r.Context(), sessionID(r), session.Credentials{
		Email:    email,
		Password: r.PostFormValue("password"),
	})
	s.finish(w, r, err, &formState{Mode: "login", Email: email})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	name, email := r.PostFormValue("name"), r.PostFormValue("email")
	_, err := s.app.Register(r.Context(), sessionID(r), session.Registration{
		Name:     name,
		Email:    email,
		Password: r.PostFormValue("password"),
	})
	s.finish(w, r, err, &formState{Mode: "register", Name: name, Email: email})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	_, err := s.app.Logout(r.Context(), sessionID(r))
	s.finish(w, r, err, nil)
}

func (s *Server) handleDate(w http.ResponseWriter, r *http.Request) {
	_, err := s.app.SelectDate(r.Context(), sessionID(r), r.PostFormValue("date"))
	s.finish(w, r, err, nil)
}

func (s *Server) handlePlannerAdd(w http.ResponseWriter, r *http.Request) {
	edit, ok := s.slotEdit(w, r)
	if !ok {
		return
	}
	_, err := s.app.AddToSlot(r.Context(), sessionID(r), edit)
	s.finish(w, r, err, nil)
}

func (s *Server) handlePlannerRemove(w http.ResponseWriter, r *http.Request) {
	edit, ok := s.slotEdit(w, r)
	if !ok {
		return
	}
	_, err := s.app.RemoveFromSlot(r.Context(), sessionID(r), edit)
	s.finish(w, r, err, nil)
}

// slotEdit reads the planner form. A malformed recipe_id is reported only
// to logged-in sessions; everyone else gets the permission error first.
func (s *Server) slotEdit(w http.ResponseWriter, r *http.Request) (app.SlotEdit, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("recipe_id")))
	if err != nil {
		sess, serr := s.app.Session(r.Context(), sessionID(r))
		if serr == nil {
			if serr = sess.CanEdit(); serr != nil {
				s.finish(w, r, serr, nil)
				return app.SlotEdit{}, false
			}
		}
		http.Error(w, "invalid recipe_id", http.StatusBadRequest)
		return app.SlotEdit{}, false
	}
	return app.SlotEdit{
		Day:      r.PostFormValue("date"),
		Meal:     r.PostFormValue("meal"),
		RecipeID: id,
	}, true
}

// finish redirects back to the page after a successful mutation and maps
// failures to a status code.
func (s *Server) finish(w http.ResponseWriter, r *http.Request, err error, form *formState) {
	if err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	switch app.Outcome(err) {
	case metrics.OutcomeInvalid:
		var verr *session.ValidationError
		if form != nil && errors.As(err, &verr) {
			form.Field = verr.Field
			form.Message = verr.Message
			s.render(w, r, http.StatusUnprocessableEntity, form, "")
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
	case metrics.OutcomeDenied:
		s.render(w, r, http.StatusForbidden, nil, "Log in to change the meal plan.")
	case metrics.OutcomeNotFound:
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.serverError(w, err)
	}
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	slog.Error("Request failed", "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
