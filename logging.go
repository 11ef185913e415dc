package useradmin

import (
	"context"

	"go.uber.org/zap"

	"github.com/flarexio/useradmin/user"
)

type RepositoryMiddleware func(user.Repository) user.Repository

func LoggingMiddleware(log *zap.Logger) RepositoryMiddleware {
	return func(next user.Repository) user.Repository {
		return &loggingMiddleware{
			log.With(
				zap.String("service", "useradmin"),
				zap.String("middleware", "logging"),
			),
			next,
		}
	}
}

type loggingMiddleware struct {
	log  *zap.Logger
	next user.Repository
}

func (mw *loggingMiddleware) Insert(ctx context.Context, u user.User) (user.User, error) {
	log := mw.log.With(
		zap.String("action", "insert"),
		zap.String("email", u.Email),
	)

	u, err := mw.next.Insert(ctx, u)
	if err != nil {
		log.Error(err.Error())
		return user.User{}, err
	}

	log.Info("user inserted", zap.String("user_id", u.ID))
	return u, nil
}

func (mw *loggingMiddleware) Update(ctx context.Context, id string, p user.Patch) (user.User, error) {
	log := mw.log.With(
		zap.String("action", "update"),
		zap.String("user_id", id),
	)

	u, err := mw.next.Update(ctx, id, p)
	if err != nil {
		log.Error(err.Error())
		return user.User{}, err
	}

	log.Info("user updated")
	return u, nil
}

func (mw *loggingMiddleware) Delete(ctx context.Context, id string) error {
	log := mw.log.With(
		zap.String("action", "delete"),
		zap.String("user_id", id),
	)

	if err := mw.next.Delete(ctx, id); err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("user deleted")
	return nil
}

func (mw *loggingMiddleware) DeleteAll(ctx context.Context) error {
	log := mw.log.With(
		zap.String("action", "delete_all"),
	)

	if err := mw.next.DeleteAll(ctx); err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("all users deleted")
	return nil
}

func (mw *loggingMiddleware) FindAll(ctx context.Context) ([]user.User, error) {
	log := mw.log.With(
		zap.String("action", "find_all"),
	)

	users, err := mw.next.FindAll(ctx)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Debug("users found", zap.Int("count", len(users)))
	return users, nil
}

func (mw *loggingMiddleware) FindOneByID(ctx context.Context, id string) (user.User, error) {
	log := mw.log.With(
		zap.String("action", "find_one_by_id"),
		zap.String("user_id", id),
	)

	u, err := mw.next.FindOneByID(ctx, id)
	if err != nil {
		log.Error(err.Error())
		return user.User{}, err
	}

	log.Debug("user found")
	return u, nil
}

func (mw *loggingMiddleware) FindOneByEmail(ctx context.Context, email string) (user.User, error) {
	log := mw.log.With(
		zap.String("action", "find_one_by_email"),
		zap.String("email", email),
	)

	u, err := mw.next.FindOneByEmail(ctx, email)
	if err != nil {
		log.Error(err.Error())
		return user.User{}, err
	}

	log.Debug("user found", zap.String("user_id", u.ID))
	return u, nil
}
