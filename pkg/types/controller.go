package types

import "github.com/gorilla/mux"

// Controller is implemented by every HTTP surface registered on the server.
type Controller interface {
	Key() string
	Register(r *mux.Router)
}
