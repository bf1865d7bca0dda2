package sessionstore

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/pkg/errors"
)

// discardResponse swallows the expired cookie Erase makes the store write.
type discardResponse struct{ header http.Header }

func (w discardResponse) Header() http.Header         { return w.header }
func (w discardResponse) Write(b []byte) (int, error) { return len(b), nil }
func (w discardResponse) WriteHeader(int)             {}

// Erase deletes the server-side data behind session, leaving session itself untouched.
// Sessions that were never stored are ignored.
func Erase(r *http.Request, session *sessions.Session) error {
	if session == nil || session.ID == "" || session.IsNew {
		return nil
	}
	expired := *session
	opts := sessions.Options{}
	if session.Options != nil {
		opts = *session.Options
	}
	opts.MaxAge = -1
	expired.Options = &opts
	expired.Values = map[interface{}]interface{}{}

	err := expired.Save(r, discardResponse{header: http.Header{}})
	return errors.Wrap(err, "erasing session")
}
