package pubsub

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-kit/kit/endpoint"
	"github.com/nats-io/nats.go/micro"

	"github.com/flarexio/useradmin"
	"github.com/flarexio/useradmin/user"
)

// AddEndpoints exposes the repository under the "users" group of srv,
// e.g. users.find, users.insert.
func AddEndpoints(srv micro.Service, endpoints useradmin.EndpointSet) error {
	users := srv.AddGroup("users")

	handlers := map[string]micro.HandlerFunc{
		"list":          NoArgsHandler(endpoints.FindAll),
		"find":          IDHandler(endpoints.FindOneByID),
		"find_by_email": FindOneByEmailHandler(endpoints.FindOneByEmail),
		"insert":        InsertHandler(endpoints.Insert),
		"update":        UpdateHandler(endpoints.Update),
		"delete":        IDHandler(endpoints.Delete),
		"delete_all":    NoArgsHandler(endpoints.DeleteAll),
	}

	for name, handler := range handlers {
		if err := users.AddEndpoint(name, handler); err != nil {
			return err
		}
	}

	return nil
}

// ErrorCode maps repository errors onto the status codes carried in
// the micro error header.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		return "404"
	case errors.Is(err, user.ErrInvalidIdentity),
		errors.Is(err, useradmin.ErrInvalidRequest):
		return "400"
	default:
		return "500"
	}
}

type IDRequest struct {
	ID string `json:"id"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

func NoArgsHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		respond(r, endpoint, nil)
	}
}

func IDHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		var req IDRequest
		if err := json.Unmarshal(r.Data(), &req); err != nil {
			r.Error("400", err.Error(), nil)
			return
		}

		respond(r, endpoint, req.ID)
	}
}

func FindOneByEmailHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		var req EmailRequest
		if err := json.Unmarshal(r.Data(), &req); err != nil {
			r.Error("400", err.Error(), nil)
			return
		}

		respond(r, endpoint, req.Email)
	}
}

func InsertHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		var req useradmin.InsertRequest
		if err := json.Unmarshal(r.Data(), &req); err != nil {
			r.Error("400", err.Error(), nil)
			return
		}

		respond(r, endpoint, req)
	}
}

func UpdateHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		var req useradmin.UpdateRequest
		if err := json.Unmarshal(r.Data(), &req); err != nil {
			r.Error("400", err.Error(), nil)
			return
		}

		respond(r, endpoint, req)
	}
}

func respond(r micro.Request, endpoint endpoint.Endpoint, req any) {
	ctx := context.Background()

	resp, err := endpoint(ctx, req)
	if err != nil {
		r.Error(ErrorCode(err), err.Error(), nil)
		return
	}

	r.RespondJSON(&resp)
}
