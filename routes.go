package portal

// Route binds a path to a named screen and the view that renders it.
type Route struct {
	Name string
	Path string
	View string
	// Protected screens need a present session.
	Protected bool
}

// AuthControllerRoutes are the paths the controller mounts.
type AuthControllerRoutes struct {
	Home           string
	SignIn         string
	SignUp         string
	SignOut        string
	SocialSignIn   string
	ForgotPassword string
	ResetPassword  string
	Profile        string
	TwoFactor      string
	Dashboard      string
	Settings       string
	SessionAPI     string
	CSRFToken      string
}

// AuthControllerViews are the template names rendered for each screen.
type AuthControllerViews struct {
	Home           string
	SignIn         string
	SignUp         string
	ForgotPassword string
	ResetPassword  string
	Profile        string
	TwoFactor      string
	Dashboard      string
	Settings       string
	Loading        string
	NotFound       string
	Error          string
}

func defaultRoutes() *AuthControllerRoutes {
	return &AuthControllerRoutes{
		Home:           "/",
		SignIn:         "/signin",
		SignUp:         "/signup",
		SignOut:        "/signout",
		SocialSignIn:   "/signin/social",
		ForgotPassword: "/forgot-password",
		ResetPassword:  "/reset-password",
		Profile:        "/profile",
		TwoFactor:      "/2fa",
		Dashboard:      "/dashboard",
		Settings:       "/dashboard/settings",
		SessionAPI:     "/api/session",
		CSRFToken:      "/api/csrf",
	}
}

func defaultViews() *AuthControllerViews {
	return &AuthControllerViews{
		Home:           "index",
		SignIn:         "signin",
		SignUp:         "signup",
		ForgotPassword: "forgot_password",
		ResetPassword:  "reset_password",
		Profile:        "profile",
		TwoFactor:      "two_factor",
		Dashboard:      "dashboard",
		Settings:       "settings",
		Loading:        "loading",
		NotFound:       "errors/404",
		Error:          "errors/500",
	}
}

// RouteTable lists the screens in mount order. The catch-all is last.
func RouteTable(r *AuthControllerRoutes, v *AuthControllerViews) []Route {
	return []Route{
		{Name: "home", Path: r.Home, View: v.Home},
		{Name: "sign-in", Path: r.SignIn, View: v.SignIn},
		{Name: "sign-up", Path: r.SignUp, View: v.SignUp},
		{Name: "forgot-password", Path: r.ForgotPassword, View: v.ForgotPassword},
		{Name: "reset-password", Path: r.ResetPassword, View: v.ResetPassword},
		{Name: "profile", Path: r.Profile, View: v.Profile, Protected: true},
		{Name: "two-factor", Path: r.TwoFactor, View: v.TwoFactor},
		{Name: "dashboard", Path: r.Dashboard, View: v.Dashboard, Protected: true},
		{Name: "settings", Path: r.Settings, View: v.Settings, Protected: true},
		{Name: "not-found", Path: "/*", View: v.NotFound},
	}
}

// Protected reports whether path belongs to a screen that needs a session.
func (r *AuthControllerRoutes) Protected(path string) bool {
	for _, route := range RouteTable(r, defaultViews()) {
		if route.Protected && route.Path == path {
			return true
		}
	}
	return false
}
