package pages

import (
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

// LoginData is the view model of the sign-in form.
type LoginData struct {
	Email string
}

// RegisterData is the view model of the registration form.
type RegisterData struct {
	Email    string
	Nickname string
}

// Login renders the sign-in form.
func Login(data LoginData) g.Node {
	return h.Div(h.Class("card"),
		h.H1(g.Text("Sign in")),
		g.El("form", h.Method("post"), h.Action("/auth/login"),
			field("email", "Email", h.Input(h.Type("email"), h.Name("email"), h.ID("email"), h.Value(data.Email), h.Required(), h.AutoComplete("email"))),
			field("password", "Password", h.Input(h.Type("password"), h.Name("password"), h.ID("password"), h.Required(), h.AutoComplete("current-password"))),
			h.Button(h.Type("submit"), g.Text("Sign in")),
		),
		h.P(g.Text("No account yet? "), h.A(h.Href("/auth/register"), g.Text("Register"))),
	)
}

// Register renders the registration form. The registration key is handed
// out by the operator.
func Register(data RegisterData) g.Node {
	return h.Div(h.Class("card"),
		h.H1(g.Text("Create an account")),
		g.El("form", h.Method("post"), h.Action("/auth/register"),
			field("email", "Email", h.Input(h.Type("email"), h.Name("email"), h.ID("email"), h.Value(data.Email), h.Required(), h.AutoComplete("email"))),
			field("nickname", "Nickname", h.Input(h.Type("text"), h.Name("nickname"), h.ID("nickname"), h.Value(data.Nickname), h.Placeholder("Defaults to the first part of your email"))),
			field("password", "Password", h.Input(h.Type("password"), h.Name("password"), h.ID("password"), h.Required(), h.AutoComplete("new-password"))),
			field("password_confirm", "Confirm password", h.Input(h.Type("password"), h.Name("password_confirm"), h.ID("password_confirm"), h.Required(), h.AutoComplete("new-password"))),
			field("secret_key", "Registration key", h.Input(h.Type("password"), h.Name("secret_key"), h.ID("secret_key"), h.Required())),
			h.Button(h.Type("submit"), g.Text("Register")),
		),
		h.P(g.Text("Already registered? "), h.A(h.Href("/auth/login"), g.Text("Sign in"))),
	)
}

func field(id, label string, input g.Node) g.Node {
	return h.P(
		g.El("label", g.Attr("for", id), g.Text(label)),
		h.Br(),
		input,
	)
}
