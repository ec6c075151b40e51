package web

import (
	"crypto/subtle"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/ilikepancakes/gorkdb-admin/internal/database"
)

// viewBase carries the fields every page template needs.
type viewBase struct {
	Title    string
	Active   string
	Username string
	Success  string
	Error    string
}

// pagination describes the pager widget. QuerySuffix holds the active
// filters, already URL-encoded, so page links preserve them.
type pagination struct {
	Page        int
	TotalPages  int
	HasPrev     bool
	HasNext     bool
	PrevPage    int
	NextPage    int
	QuerySuffix string
}

func newPagination(page database.Page, totalPages int, filters url.Values) pagination {
	suffix := ""
	if encoded := filters.Encode(); encoded != "" {
		suffix = "&" + encoded
	}
	return pagination{
		Page:        page.Number,
		TotalPages:  totalPages,
		HasPrev:     page.Number > 1,
		HasNext:     page.Number < totalPages,
		PrevPage:    page.Number - 1,
		NextPage:    page.Number + 1,
		QuerySuffix: suffix,
	}
}

func pageParam(r *http.Request) database.Page {
	n, _ := strconv.Atoi(r.URL.Query().Get("page"))
	return database.NewPage(n)
}

type loginData struct {
	viewBase
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.sessions.IsAuthenticated(r) {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	data := loginData{viewBase: viewBase{Title: "Login"}}

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form data", http.StatusBadRequest)
			return
		}
		username := r.PostFormValue("username")
		password := r.PostFormValue("password")

		userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.Auth.Username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.Auth.Password)) == 1
		if userOK && passOK {
			if err := s.sessions.LogIn(w, r, username); err != nil {
				s.logger.Error("failed to establish session", "error", err)
				http.Error(w, "failed to establish session", http.StatusInternalServerError)
				return
			}
			s.logger.Info("admin logged in", "username", username)
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}

		s.logger.Warn("failed login attempt", "username", username)
		data.Error = "Invalid username or password"
	}

	s.render(w, "login.html", data)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.LogOut(w, r); err != nil {
		s.logger.Error("failed to clear session", "error", err)
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

type dashboardData struct {
	viewBase
	Stats      *database.Stats
	DBPath     string
	DBSize     string
	DBModified string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.DashboardStats(r.Context())
	if err != nil {
		s.logger.Error("failed to load dashboard stats", "error", err)
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}

	data := dashboardData{
		viewBase:   viewBase{Title: "Dashboard", Active: "dashboard", Username: s.sessions.Username(r)},
		Stats:      stats,
		DBPath:     s.cfg.Database.Path,
		DBSize:     "File not found",
		DBModified: "N/A",
	}
	if info, err := os.Stat(s.cfg.Database.Path); err == nil {
		data.DBSize = formatNumber(info.Size()) + " bytes"
		data.DBModified = info.ModTime().Format("2006-01-02 15:04:05")
	}

	s.render(w, "dashboard.html", data)
}

type messagesData struct {
	viewBase
	Messages   []database.MessageListItem
	Users      []database.UserRef
	Total      int64
	Search     string
	UserFilter string
	Pagination pagination
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	data := messagesData{
		viewBase: viewBase{Title: "Messages", Active: "messages", Username: s.sessions.Username(r)},
	}

	if r.Method == http.MethodPost && r.PostFormValue("delete_message") != "" {
		messageID := r.PostFormValue("message_id")
		if err := s.store.DeleteMessage(r.Context(), messageID); err != nil {
			data.Error = "Error deleting message: " + err.Error()
		} else {
			data.Success = "Message deleted successfully"
		}
	}

	data.Search = r.URL.Query().Get("search")
	data.UserFilter = r.URL.Query().Get("user")
	page := pageParam(r)

	messages, total, err := s.store.ListMessages(r.Context(), page, data.Search, data.UserFilter)
	if err != nil {
		s.logger.Error("failed to list messages", "error", err)
		http.Error(w, "failed to load messages", http.StatusInternalServerError)
		return
	}

	users, err := s.store.DistinctUsers(r.Context())
	if err != nil {
		s.logger.Error("failed to load user filter options", "error", err)
		http.Error(w, "failed to load messages", http.StatusInternalServerError)
		return
	}

	filters := url.Values{}
	if data.Search != "" {
		filters.Set("search", data.Search)
	}
	if data.UserFilter != "" {
		filters.Set("user", data.UserFilter)
	}

	data.Messages = messages
	data.Users = users
	data.Total = total
	data.Pagination = newPagination(page, database.TotalPages(total, page.Size), filters)

	s.render(w, "messages.html", data)
}

type responsesData struct {
	viewBase
	Responses   []database.ResponseListItem
	Models      []string
	Total       int64
	Search      string
	ModelFilter string
	Pagination  pagination
}

func (s *Server) handleResponses(w http.ResponseWriter, r *http.Request) {
	data := responsesData{
		viewBase: viewBase{Title: "Bot Responses", Active: "responses", Username: s.sessions.Username(r)},
	}

	if r.Method == http.MethodPost && r.PostFormValue("delete_response") != "" {
		id, err := strconv.ParseInt(r.PostFormValue("response_id"), 10, 64)
		if err != nil {
			data.Error = "Invalid response id"
		} else if err := s.store.DeleteResponse(r.Context(), id); err != nil {
			data.Error = "Error deleting response: " + err.Error()
		} else {
			data.Success = "Response deleted successfully"
		}
	}

	data.Search = r.URL.Query().Get("search")
	data.ModelFilter = r.URL.Query().Get("model")
	page := pageParam(r)

	responses, total, err := s.store.ListResponses(r.Context(), page, data.Search, data.ModelFilter)
	if err != nil {
		s.logger.Error("failed to list responses", "error", err)
		http.Error(w, "failed to load responses", http.StatusInternalServerError)
		return
	}

	models, err := s.store.DistinctModels(r.Context())
	if err != nil {
		s.logger.Error("failed to load model filter options", "error", err)
		http.Error(w, "failed to load responses", http.StatusInternalServerError)
		return
	}

	filters := url.Values{}
	if data.Search != "" {
		filters.Set("search", data.Search)
	}
	if data.ModelFilter != "" {
		filters.Set("model", data.ModelFilter)
	}

	data.Responses = responses
	data.Models = models
	data.Total = total
	data.Pagination = newPagination(page, database.TotalPages(total, page.Size), filters)

	s.render(w, "responses.html", data)
}

type usersData struct {
	viewBase
	Users []database.UserStats
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	data := usersData{
		viewBase: viewBase{Title: "Users", Active: "users", Username: s.sessions.Username(r)},
	}

	if r.Method == http.MethodPost && r.PostFormValue("delete_user_data") != "" {
		userID := r.PostFormValue("user_id")
		if err := s.store.DeleteUserData(r.Context(), userID); err != nil {
			data.Error = "Error deleting user data: " + err.Error()
		} else {
			// Redirect after a successful delete so a refresh cannot repeat it.
			http.Redirect(w, r, "/users?success="+url.QueryEscape("User data deleted successfully"), http.StatusFound)
			return
		}
	}

	if msg := r.URL.Query().Get("success"); msg != "" {
		data.Success = msg
	}

	users, err := s.store.UserStats(r.Context())
	if err != nil {
		s.logger.Error("failed to load user stats", "error", err)
		http.Error(w, "failed to load users", http.StatusInternalServerError)
		return
	}
	data.Users = users

	s.render(w, "users.html", data)
}

type analyticsData struct {
	viewBase
	Analytics  *database.Analytics
	MaxDay     int64
	MaxUser    int64
	MaxChannel int64
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := s.store.Analytics(r.Context())
	if err != nil {
		s.logger.Error("failed to load analytics", "error", err)
		http.Error(w, "failed to load analytics", http.StatusInternalServerError)
		return
	}

	data := analyticsData{
		viewBase:  viewBase{Title: "Analytics", Active: "analytics", Username: s.sessions.Username(r)},
		Analytics: analytics,
	}
	for _, d := range analytics.MessagesByDay {
		if d.Count > data.MaxDay {
			data.MaxDay = d.Count
		}
	}
	for _, u := range analytics.TopUsers {
		if u.MessageCount > data.MaxUser {
			data.MaxUser = u.MessageCount
		}
	}
	for _, c := range analytics.ChannelActivity {
		if c.MessageCount > data.MaxChannel {
			data.MaxChannel = c.MessageCount
		}
	}

	s.render(w, "analytics.html", data)
}
