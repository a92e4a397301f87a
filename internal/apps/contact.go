package apps

import (
	"fmt"
	"html/template"
	"net/http"
)

// ContactForm returns a small built-in application: a contact form with a
// confirmation page. It doubles as a reference for writing applications.
func ContactForm(registry *Registry) *Application {
	form := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Error parsing form", http.StatusBadRequest)
				return
			}
			sent, err := registry.Reverse("contact", "sent", nil)
			if err != nil {
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			http.Redirect(w, r, sent, http.StatusSeeOther)
			return
		}

		action, err := registry.Reverse("contact", "form", nil)
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, `<form action="%s" method="post">
  <label>Name <input type="text" name="name" required></label>
  <label>Message <textarea name="message" required></textarea></label>
  <button type="submit">Send</button>
</form>`, template.HTMLEscapeString(action))
	})

	sent := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<p>Thank you, your message has been sent.</p>`)
	})

	return &Application{
		Name: "contact",
		Routes: []Route{
			{Name: "form", Pattern: "", Handler: form},
			{Name: "sent", Pattern: "sent/", Handler: sent},
		},
	}
}
