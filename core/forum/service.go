package forum

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/sala/core"
	"github.com/trezcool/sala/core/course"
	"github.com/trezcool/sala/core/user"
)

var (
	// errors
	ErrTopicNotFound   = core.NewNotFoundError("topic")
	ErrCommentNotFound = core.NewNotFoundError("comment")
	ErrVoteNotFound    = core.NewNotFoundError("vote")

	errReplyToReply   = "replies cannot be replied to"
	errNotTopicAuthor = "only the author or an admin can modify this topic"
	errNotCmtAuthor   = "only the author or an admin can modify this comment"
	errPinAdminOnly   = "only admins can pin topics"

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateTopic(ctx context.Context, t Topic) (Topic, error)
		GetTopic(ctx context.Context, id int) (Topic, error)
		// IncrementTopicViews adds one view to the topic and returns it, in a single statement.
		IncrementTopicViews(ctx context.Context, id int) (Topic, error)
		QueryTopics(ctx context.Context, filter *TopicFilter, ordering []core.DBOrdering) ([]Topic, error)
		UpdateTopic(ctx context.Context, t Topic) (Topic, error)
		// DeleteTopic deletes the topic, its comments and their votes.
		DeleteTopic(ctx context.Context, id int) error

		CreateComment(ctx context.Context, c Comment) (Comment, error)
		GetComment(ctx context.Context, id int) (Comment, error)
		// QueryTopicComments returns all comments of a topic ordered by creation time, then ID.
		QueryTopicComments(ctx context.Context, topicID int) ([]Comment, error)
		UpdateComment(ctx context.Context, c Comment) (Comment, error)
		// DeleteComment deletes the comment, its replies and their votes.
		DeleteComment(ctx context.Context, id int) error

		// CastVote upserts the (user, comment) vote and recomputes the comment score from its votes
		// as one atomic unit, then returns the updated comment.
		CastVote(ctx context.Context, userID, commentID int, vt VoteType) (Comment, error)
		// RetractVote deletes the (user, comment) vote and recomputes the comment score atomically.
		RetractVote(ctx context.Context, userID, commentID int) (Comment, error)
		GetVote(ctx context.Context, userID, commentID int) (CommentVote, error)
	}

	UserFinder interface {
		GetByID(ctx context.Context, id int) (user.User, error)
	}

	CourseFinder interface {
		GetByID(ctx context.Context, id int) (course.Course, error)
	}

	Service struct {
		repo     Repository
		users    UserFinder
		courses  CourseFinder
		validate *validator.Validate
		mailSvc  core.EmailService
		logger   core.Logger
	}
)

func NewService(
	repo Repository,
	users UserFinder,
	courses CourseFinder,
	validate *validator.Validate,
	mailSvc core.EmailService,
	logger core.Logger,
) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(users, "users"),
		vala.IsNotNil(courses, "courses"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(mailSvc, "mailSvc"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{
		repo:     repo,
		users:    users,
		courses:  courses,
		validate: validate,
		mailSvc:  mailSvc,
		logger:   logger,
	}
}

func now() time.Time { return nowFunc().UTC() }

func (svc *Service) checkCourse(ctx context.Context, courseID *int) error {
	if courseID == nil {
		return nil
	}
	if _, err := svc.courses.GetByID(ctx, *courseID); err != nil {
		if core.IsNotFound(err) {
			return err
		}
		return errors.Wrap(err, "finding course")
	}
	return nil
}

// Topics

func (svc *Service) CreateTopic(ctx context.Context, who user.Identity, nt NewTopic) (Topic, error) {
	if who.IsZero() {
		return Topic{}, core.ErrUnauthenticated
	}
	if err := nt.Validate(svc.validate); err != nil {
		return Topic{}, err
	}
	if err := svc.checkCourse(ctx, nt.CourseID); err != nil {
		return Topic{}, err
	}

	t := now()
	topic, err := svc.repo.CreateTopic(ctx, Topic{
		Title:     nt.Title,
		Content:   nt.Content,
		AuthorID:  who.ID,
		CourseID:  nt.CourseID,
		Tags:      nt.Tags,
		CreatedAt: t,
		UpdatedAt: t,
	})
	if err != nil {
		return Topic{}, errors.Wrap(err, "creating topic")
	}
	return topic, nil
}

// GetTopic returns the topic after counting the read as a view.
func (svc *Service) GetTopic(ctx context.Context, id int) (Topic, error) {
	return svc.repo.IncrementTopicViews(ctx, id)
}

// QueryTopics lists topics matching filter. Pinned topics come first unless an ordering is given.
func (svc *Service) QueryTopics(ctx context.Context, filter *TopicFilter, ordering []core.DBOrdering) ([]Topic, error) {
	if len(ordering) == 0 {
		ordering = defaultTopicOrdering
	}
	return svc.repo.QueryTopics(ctx, filter, ordering)
}

func (svc *Service) UpdateTopic(ctx context.Context, who user.Identity, id int, ut UpdateTopic) (Topic, error) {
	if who.IsZero() {
		return Topic{}, core.ErrUnauthenticated
	}
	topic, err := svc.repo.GetTopic(ctx, id)
	if err != nil {
		return Topic{}, err
	}
	if !CanModify(topic, who) {
		return Topic{}, core.NewForbiddenError(errNotTopicAuthor)
	}
	if err := ut.Validate(svc.validate); err != nil {
		return Topic{}, err
	}
	if ut.CourseID != nil {
		if err := svc.checkCourse(ctx, ut.CourseID); err != nil {
			return Topic{}, err
		}
		topic.CourseID = ut.CourseID
	}

	topic.Title = ut.Title
	topic.Content = ut.Content
	if ut.Tags != nil {
		topic.Tags = ut.Tags
	}
	topic.UpdatedAt = now()
	return svc.repo.UpdateTopic(ctx, topic)
}

// SetPinned pins or unpins a topic. Admins only.
func (svc *Service) SetPinned(ctx context.Context, who user.Identity, id int, pinned bool) (Topic, error) {
	if who.IsZero() {
		return Topic{}, core.ErrUnauthenticated
	}
	topic, err := svc.repo.GetTopic(ctx, id)
	if err != nil {
		return Topic{}, err
	}
	if !who.IsAdmin() {
		return Topic{}, core.NewForbiddenError(errPinAdminOnly)
	}
	topic.IsPinned = pinned
	topic.UpdatedAt = now()
	return svc.repo.UpdateTopic(ctx, topic)
}

func (svc *Service) DeleteTopic(ctx context.Context, who user.Identity, id int) error {
	if who.IsZero() {
		return core.ErrUnauthenticated
	}
	topic, err := svc.repo.GetTopic(ctx, id)
	if err != nil {
		return err
	}
	if !CanModify(topic, who) {
		return core.NewForbiddenError(errNotTopicAuthor)
	}
	return svc.repo.DeleteTopic(ctx, id)
}

// Comments

func (svc *Service) CreateComment(ctx context.Context, who user.Identity, nc NewComment) (Comment, error) {
	if who.IsZero() {
		return Comment{}, core.ErrUnauthenticated
	}
	if err := nc.Validate(svc.validate); err != nil {
		return Comment{}, err
	}
	topic, err := svc.repo.GetTopic(ctx, nc.TopicID)
	if err != nil {
		return Comment{}, err
	}

	var parent Comment
	if nc.ParentID != nil {
		if parent, err = svc.repo.GetComment(ctx, *nc.ParentID); err != nil {
			return Comment{}, err
		}
		if parent.TopicID != topic.ID {
			return Comment{}, ErrCommentNotFound // not on this topic
		}
		if !CanReply(parent) {
			return Comment{}, core.NewForbiddenError(errReplyToReply)
		}
	}

	t := now()
	cmt, err := svc.repo.CreateComment(ctx, Comment{
		Content:     nc.Content,
		AuthorID:    who.ID,
		TopicID:     topic.ID,
		ParentID:    nc.ParentID,
		IsAnonymous: nc.IsAnonymous,
		CreatedAt:   t,
		UpdatedAt:   t,
	})
	if err != nil {
		return Comment{}, errors.Wrap(err, "creating comment")
	}

	if cmt.IsReply() {
		svc.notifyReply(ctx, topic, parent, cmt)
	}
	return cmt, nil
}

func (svc *Service) UpdateComment(ctx context.Context, who user.Identity, id int, uc UpdateComment) (Comment, error) {
	if who.IsZero() {
		return Comment{}, core.ErrUnauthenticated
	}
	cmt, err := svc.repo.GetComment(ctx, id)
	if err != nil {
		return Comment{}, err
	}
	if !CanModify(cmt, who) {
		return Comment{}, core.NewForbiddenError(errNotCmtAuthor)
	}
	if err := uc.Validate(svc.validate); err != nil {
		return Comment{}, err
	}

	cmt.Content = uc.Content
	if uc.IsAnonymous != nil {
		cmt.IsAnonymous = *uc.IsAnonymous
	}
	cmt.UpdatedAt = now()
	return svc.repo.UpdateComment(ctx, cmt)
}

func (svc *Service) DeleteComment(ctx context.Context, who user.Identity, id int) error {
	if who.IsZero() {
		return core.ErrUnauthenticated
	}
	cmt, err := svc.repo.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if !CanModify(cmt, who) {
		return core.NewForbiddenError(errNotCmtAuthor)
	}
	return svc.repo.DeleteComment(ctx, id)
}

// Votes

// VoteComment records who's vote on a comment, replacing any previous vote of theirs.
func (svc *Service) VoteComment(ctx context.Context, who user.Identity, commentID int, vt VoteType) error {
	if who.IsZero() {
		return core.ErrUnauthenticated
	}
	vi := VoteInput{VoteType: vt}
	if err := vi.Validate(svc.validate); err != nil {
		return err
	}
	if _, err := svc.repo.GetComment(ctx, commentID); err != nil {
		return err
	}
	if _, err := svc.users.GetByID(ctx, who.ID); err != nil {
		if core.IsNotFound(err) {
			return err
		}
		return errors.Wrap(err, "finding voter")
	}

	if _, err := svc.repo.CastVote(ctx, who.ID, commentID, vt); err != nil {
		return errors.Wrap(err, "casting vote")
	}
	return nil
}

// RetractVote removes who's vote on a comment. Retracting a missing vote is a no-op.
func (svc *Service) RetractVote(ctx context.Context, who user.Identity, commentID int) error {
	if who.IsZero() {
		return core.ErrUnauthenticated
	}
	if _, err := svc.repo.GetComment(ctx, commentID); err != nil {
		return err
	}
	if _, err := svc.repo.GetVote(ctx, who.ID, commentID); err != nil {
		if errors.Cause(err) == ErrVoteNotFound {
			return nil
		}
		return errors.Wrap(err, "finding vote")
	}

	if _, err := svc.repo.RetractVote(ctx, who.ID, commentID); err != nil {
		return errors.Wrap(err, "retracting vote")
	}
	return nil
}

// Threads

// GetThread returns the topic comments as a thread, decorated for who.
func (svc *Service) GetThread(ctx context.Context, who user.Identity, topicID int) (Thread, error) {
	topic, err := svc.repo.GetTopic(ctx, topicID)
	if err != nil {
		return Thread{}, err
	}
	comments, err := svc.repo.QueryTopicComments(ctx, topicID)
	if err != nil {
		return Thread{}, errors.Wrap(err, "querying topic comments")
	}

	authors, err := svc.findAuthors(ctx, comments)
	if err != nil {
		return Thread{}, err
	}

	nodes := BuildThread(comments)
	thread := Thread{Topic: topic, Comments: make([]ThreadView, 0, len(nodes))}
	for _, node := range nodes {
		view := ThreadView{
			CommentView: newCommentView(node.Comment, authors[node.Comment.AuthorID], who),
			Replies:     make([]CommentView, 0, len(node.Replies)),
		}
		for _, reply := range node.Replies {
			view.Replies = append(view.Replies, newCommentView(reply, authors[reply.AuthorID], who))
		}
		thread.Comments = append(thread.Comments, view)
	}
	return thread, nil
}

// findAuthors loads the authors of comments. Missing users are left out of the result.
func (svc *Service) findAuthors(ctx context.Context, comments []Comment) (map[int]*user.User, error) {
	authors := make(map[int]*user.User)
	for _, c := range comments {
		if _, ok := authors[c.AuthorID]; ok {
			continue
		}
		usr, err := svc.users.GetByID(ctx, c.AuthorID)
		if err != nil {
			if core.IsNotFound(err) {
				authors[c.AuthorID] = nil
				continue
			}
			return nil, errors.Wrap(err, "finding comment author")
		}
		authors[c.AuthorID] = &usr
	}
	return authors, nil
}
