package useradmin

import (
	"context"
	"errors"

	"github.com/go-kit/kit/endpoint"

	"github.com/flarexio/useradmin/user"
)

var ErrInvalidRequest = errors.New("invalid request")

type EndpointSet struct {
	FindAll        endpoint.Endpoint
	FindOneByID    endpoint.Endpoint
	FindOneByEmail endpoint.Endpoint
	Insert         endpoint.Endpoint
	Update         endpoint.Endpoint
	Delete         endpoint.Endpoint
	DeleteAll      endpoint.Endpoint
}

func NewEndpointSet(users user.Repository) EndpointSet {
	return EndpointSet{
		FindAll:        FindAllEndpoint(users),
		FindOneByID:    FindOneByIDEndpoint(users),
		FindOneByEmail: FindOneByEmailEndpoint(users),
		Insert:         InsertEndpoint(users),
		Update:         UpdateEndpoint(users),
		Delete:         DeleteEndpoint(users),
		DeleteAll:      DeleteAllEndpoint(users),
	}
}

func FindAllEndpoint(users user.Repository) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		return users.FindAll(ctx)
	}
}

func FindOneByIDEndpoint(users user.Repository) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		id, ok := request.(string)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return users.FindOneByID(ctx, id)
	}
}

func FindOneByEmailEndpoint(users user.Repository) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		email, ok := request.(string)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return users.FindOneByEmail(ctx, email)
	}
}

type InsertRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func InsertEndpoint(users user.Repository) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(InsertRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		u := user.User{
			Name:  req.Name,
			Email: req.Email,
		}

		return users.Insert(ctx, u)
	}
}

type UpdateRequest struct {
	ID    string     `json:"id"`
	Patch user.Patch `json:"patch"`
}

func UpdateEndpoint(users user.Repository) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(UpdateRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return users.Update(ctx, req.ID, req.Patch)
	}
}

func DeleteEndpoint(users user.Repository) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		id, ok := request.(string)
		if !ok {
			return nil, ErrInvalidRequest
		}

		if err := users.Delete(ctx, id); err != nil {
			return nil, err
		}

		return struct{}{}, nil
	}
}

func DeleteAllEndpoint(users user.Repository) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		if err := users.DeleteAll(ctx); err != nil {
			return nil, err
		}

		return struct{}{}, nil
	}
}
