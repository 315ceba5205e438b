package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/sala/core/forum"
)

type forumApi struct {
	svc *forum.Service
}

func registerForumAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *forum.Service) {
	api := forumApi{svc: svc}

	fg := g.Group("/forum", jwt)

	tg := fg.Group("/topics")
	tg.GET("", api.queryTopics)
	tg.POST("", api.createTopic)
	tg.GET("/:id", api.retrieveTopic)
	tg.PUT("/:id", api.updateTopic)
	tg.PUT("/:id/pin", api.pinTopic, adminMiddleware())
	tg.DELETE("/:id", api.destroyTopic)
	tg.GET("/:id/comments", api.thread)
	tg.POST("/:id/comments", api.createComment)

	cg := fg.Group("/comments")
	cg.PUT("/:id", api.updateComment)
	cg.DELETE("/:id", api.destroyComment)
	cg.POST("/:id/vote", api.vote)
	cg.DELETE("/:id/vote", api.retractVote)
}

// Topics

func (api *forumApi) queryTopics(ctx echo.Context) error {
	filter := new(forum.TopicFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []forum.Topic{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx, forum.TopicOrderingFields)

	topics, err := api.svc.QueryTopics(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying topics")
	}
	if topics == nil {
		topics = []forum.Topic{}
	}
	return ctx.JSON(http.StatusOK, topics)
}

func (api *forumApi) createTopic(ctx echo.Context) error {
	var data forum.NewTopic
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTopic")
	}
	topic, err := api.svc.CreateTopic(ctx.Request().Context(), getIdentity(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating topic")
	}
	return ctx.JSON(http.StatusCreated, topic)
}

func (api *forumApi) retrieveTopic(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	topic, err := api.svc.GetTopic(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting topic")
	}
	return ctx.JSON(http.StatusOK, topic)
}

func (api *forumApi) updateTopic(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data forum.UpdateTopic
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTopic")
	}
	topic, err := api.svc.UpdateTopic(ctx.Request().Context(), getIdentity(ctx), id, data)
	if err != nil {
		return errors.Wrap(err, "updating topic")
	}
	return ctx.JSON(http.StatusOK, topic)
}

func (api *forumApi) pinTopic(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data PinRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PinRequest")
	}
	topic, err := api.svc.SetPinned(ctx.Request().Context(), getIdentity(ctx), id, data.Pinned)
	if err != nil {
		return errors.Wrap(err, "pinning topic")
	}
	return ctx.JSON(http.StatusOK, topic)
}

func (api *forumApi) destroyTopic(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteTopic(ctx.Request().Context(), getIdentity(ctx), id); err != nil {
		return errors.Wrap(err, "deleting topic")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Comments

func (api *forumApi) thread(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	thread, err := api.svc.GetThread(ctx.Request().Context(), getIdentity(ctx), id)
	if err != nil {
		return errors.Wrap(err, "getting thread")
	}
	return ctx.JSON(http.StatusOK, thread)
}

func (api *forumApi) createComment(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data forum.NewComment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewComment")
	}
	data.TopicID = id
	cmt, err := api.svc.CreateComment(ctx.Request().Context(), getIdentity(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating comment")
	}
	return ctx.JSON(http.StatusCreated, cmt)
}

func (api *forumApi) updateComment(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data forum.UpdateComment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateComment")
	}
	cmt, err := api.svc.UpdateComment(ctx.Request().Context(), getIdentity(ctx), id, data)
	if err != nil {
		return errors.Wrap(err, "updating comment")
	}
	return ctx.JSON(http.StatusOK, cmt)
}

func (api *forumApi) destroyComment(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteComment(ctx.Request().Context(), getIdentity(ctx), id); err != nil {
		return errors.Wrap(err, "deleting comment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Votes

func (api *forumApi) vote(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data forum.VoteInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VoteInput")
	}
	if err = api.svc.VoteComment(ctx.Request().Context(), getIdentity(ctx), id, data.VoteType); err != nil {
		return errors.Wrap(err, "voting comment")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "vote registered"})
}

func (api *forumApi) retractVote(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.RetractVote(ctx.Request().Context(), getIdentity(ctx), id); err != nil {
		return errors.Wrap(err, "retracting vote")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type PinRequest struct {
	Pinned bool `json:"pinned"`
}
