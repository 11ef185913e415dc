package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/kit/endpoint"

	"github.com/flarexio/useradmin"
	"github.com/flarexio/useradmin/user"
)

const TotalCountHeader = "X-Total-Count"

// AddRoutes mounts the users resource on r.
func AddRoutes(r gin.IRouter, endpoints useradmin.EndpointSet) {
	users := r.Group("/users")
	{
		// GET /users
		users.GET("", ListHandler(endpoints.FindAll, endpoints.FindOneByEmail, endpoints.FindOneByID))

		// POST /users
		users.POST("", InsertHandler(endpoints.Insert))

		// DELETE /users
		users.DELETE("", DeleteAllHandler(endpoints.DeleteAll))

		// GET /users/:id
		users.GET("/:id", FindOneHandler(endpoints.FindOneByID))

		// PUT /users/:id
		users.PUT("/:id", UpdateHandler(endpoints.Update))

		// PATCH /users/:id
		users.PATCH("/:id", UpdateHandler(endpoints.Update))

		// DELETE /users/:id
		users.DELETE("/:id", DeleteHandler(endpoints.Delete))
	}
}

// StatusCode maps repository errors onto HTTP status codes.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, user.ErrInvalidIdentity),
		errors.Is(err, useradmin.ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, code int, err error) {
	c.Abort()
	c.Error(err)
	c.String(code, err.Error())
}

// ListHandler returns the whole collection. Repeated id queries narrow it to
// the users that exist among them; an email query narrows it to the matching
// user, or none.
func ListHandler(findAll, findOneByEmail, findOneByID endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ids, ok := c.GetQueryArray("id"); ok {
			users := make([]any, 0, len(ids))
			for _, id := range ids {
				resp, err := findOneByID(c, id)
				if err != nil {
					if errors.Is(err, user.ErrUserNotFound) ||
						errors.Is(err, user.ErrInvalidIdentity) {
						continue
					}

					abort(c, StatusCode(err), err)
					return
				}

				users = append(users, resp)
			}

			c.Header(TotalCountHeader, strconv.Itoa(len(users)))
			c.JSON(http.StatusOK, users)
			return
		}

		if email, ok := c.GetQuery("email"); ok {
			resp, err := findOneByEmail(c, email)
			if err != nil {
				if errors.Is(err, user.ErrUserNotFound) {
					c.Header(TotalCountHeader, "0")
					c.JSON(http.StatusOK, []user.User{})
					return
				}

				abort(c, StatusCode(err), err)
				return
			}

			c.Header(TotalCountHeader, "1")
			c.JSON(http.StatusOK, []any{resp})
			return
		}

		resp, err := findAll(c, nil)
		if err != nil {
			abort(c, StatusCode(err), err)
			return
		}

		users, ok := resp.([]user.User)
		if !ok {
			err := errors.New("invalid users response")
			abort(c, http.StatusInternalServerError, err)
			return
		}

		c.Header(TotalCountHeader, strconv.Itoa(len(users)))
		c.JSON(http.StatusOK, users)
	}
}

func FindOneHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		resp, err := endpoint(c, id)
		if err != nil {
			abort(c, StatusCode(err), err)
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func InsertHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req useradmin.InsertRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abort(c, http.StatusBadRequest, err)
			return
		}

		resp, err := endpoint(c, req)
		if err != nil {
			abort(c, StatusCode(err), err)
			return
		}

		c.JSON(http.StatusCreated, &resp)
	}
}

func UpdateHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		var p user.Patch
		if err := c.ShouldBindJSON(&p); err != nil {
			abort(c, http.StatusBadRequest, err)
			return
		}

		req := useradmin.UpdateRequest{
			ID:    c.Param("id"),
			Patch: p,
		}

		resp, err := endpoint(c, req)
		if err != nil {
			abort(c, StatusCode(err), err)
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func DeleteHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		if _, err := endpoint(c, id); err != nil {
			abort(c, StatusCode(err), err)
			return
		}

		c.JSON(http.StatusOK, gin.H{})
	}
}

func DeleteAllHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := endpoint(c, nil); err != nil {
			abort(c, StatusCode(err), err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}
