package dig_container

import (
	"fmt"
	"log"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/sala/apps/api/echo"
	"github.com/trezcool/sala/core"
	"github.com/trezcool/sala/core/course"
	"github.com/trezcool/sala/core/forum"
	"github.com/trezcool/sala/core/user"
	emailsvc "github.com/trezcool/sala/services/email"
	logsvc "github.com/trezcool/sala/services/logger"
	"github.com/trezcool/sala/storage/database"
	gormrepos "github.com/trezcool/sala/storage/database/gorm"
	"github.com/trezcool/sala/storage/database/memdb"
	sqlxrepos "github.com/trezcool/sala/storage/database/sqlx"
)

const (
	engineMemory = "memory"
	ormGorm      = "gorm"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// DBCloser releases the database connections.
	DBCloser func() error

	Storage struct {
		dig.Out
		Users   user.Repository
		Courses course.Repository
		Forum   forum.Repository
		Close   DBCloser
	}
)

func newLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger("api", conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger("db", conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStorage(conf *core.Config, loggerParam DBLoggerParam) (Storage, error) {
	if conf.Database.Engine == engineMemory {
		db := memdb.Open()
		loggerParam.Logger.Info("using in-memory storage")
		return Storage{
			Users:   memdb.NewUserRepository(db),
			Courses: memdb.NewCourseRepository(db),
			Forum:   memdb.NewForumRepository(db),
			Close:   func() error { return nil },
		}, nil
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		return Storage{}, errors.Wrap(err, "creating database")
	}
	db, err := database.Open(conf)
	if err != nil {
		return Storage{}, errors.Wrap(err, "opening database")
	}
	if err = database.Migrate(db.DB); err != nil {
		return Storage{}, errors.Wrap(err, "migrating database")
	}

	out := Storage{
		Users:   sqlxrepos.NewUserRepository(db),
		Courses: sqlxrepos.NewCourseRepository(db),
		Forum:   sqlxrepos.NewForumRepository(db),
		Close:   db.Close,
	}
	if conf.Database.ForumOrm == ormGorm {
		gdb, err := gormrepos.Open(db.DB, conf.Debug)
		if err != nil {
			return Storage{}, errors.Wrap(err, "opening gorm")
		}
		out.Forum = gormrepos.NewForumRepository(gdb)
	}
	loggerParam.Logger.Info(fmt.Sprintf("using postgres storage (forum: %s)", conf.Database.ForumOrm))
	return out, nil
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	forum.InitValidators(validate, translator)
	return validate, translator
}

func newServer(
	conf *core.Config,
	logger core.Logger,
	usrSvc *user.Service,
	courseSvc *course.Service,
	forumSvc *forum.Service,
	validate *validator.Validate,
	translator ut.Translator,
) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		UserSvc:    usrSvc,
		CourseSvc:  courseSvc,
		ForumSvc:   forumSvc,
		Validate:   validate,
		Translator: translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStorage))
	must(c.Provide(newEmailService))
	must(c.Provide(newValidator))

	must(c.Provide(user.NewService))
	must(c.Provide(func(svc *user.Service) course.UserFinder { return svc }))
	must(c.Provide(func(svc *user.Service) forum.UserFinder { return svc }))
	must(c.Provide(course.NewService))
	must(c.Provide(func(svc *course.Service) forum.CourseFinder { return svc }))
	must(c.Provide(forum.NewService))

	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
