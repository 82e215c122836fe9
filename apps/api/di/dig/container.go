package dig_container

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/Maks0bs/mmLearnJS-backend-sub000/apps/api/echo"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/assets"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/core"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/course"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/exercise"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/user"
	blobsvc "github.com/Maks0bs/mmLearnJS-backend-sub000/services/blob"
	emailsvc "github.com/Maks0bs/mmLearnJS-backend-sub000/services/email"
	logsvc "github.com/Maks0bs/mmLearnJS-backend-sub000/services/logger"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/storage/database"
	inmemdb "github.com/Maks0bs/mmLearnJS-backend-sub000/storage/database/inmem"
	mongorepos "github.com/Maks0bs/mmLearnJS-backend-sub000/storage/database/mongo"
	pgrepos "github.com/Maks0bs/mmLearnJS-backend-sub000/storage/database/postgres"
)

const (
	connectTimeout = 10 * time.Second

	EngineMongo    = "mongo"
	EnginePostgres = "postgres"
	EngineMemory   = "memory"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// Store is the document store selected by `database.engine`.
	Store struct {
		dig.Out
		Tx        core.Transactor
		Users     user.Repository
		Courses   course.Repository
		Exercises exercise.Repository
		Blobs     core.BlobStore
		SQL       *sql.DB // postgres engine only
		Closer    Closer
	}

	// Closer releases the store connections.
	Closer func(ctx context.Context) error
)

func newLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger(conf), conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	std := logsvc.NewStdLogger(conf)
	std.SetReportCaller(true)
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStore(conf *core.Config, loggerParam DBLoggerParam) (Store, error) {
	var (
		store Store
		err   error
	)
	switch conf.Database.Engine {
	case EngineMongo, "":
		store, err = newMongoStore(conf)
	case EnginePostgres:
		store, err = newPostgresStore(conf)
	case EngineMemory:
		loggerParam.Logger.Warn("using the in-memory store: data is lost on shutdown")
		store = newMemoryStore()
	default:
		err = errors.Errorf("unknown database engine %q", conf.Database.Engine)
	}
	if err != nil {
		loggerParam.Logger.Error(fmt.Sprintf("setting up database: %v", err), err)
		return Store{}, err
	}
	return store, nil
}

func newMongoStore(conf *core.Config) (Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	db, err := mongorepos.Open(ctx, conf.Database)
	if err != nil {
		return Store{}, err
	}
	if err = db.EnsureIndexes(ctx); err != nil {
		_ = db.Close(ctx)
		return Store{}, err
	}
	return Store{
		Tx:        db,
		Users:     mongorepos.NewUserRepository(db),
		Courses:   mongorepos.NewCourseRepository(db),
		Exercises: mongorepos.NewExerciseRepository(db),
		Blobs:     blobsvc.NewGridFSStore(db.Database(), conf.Blob),
		Closer:    db.Close,
	}, nil
}

func newPostgresStore(conf *core.Config) (Store, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return Store{}, err
	}
	sqlDB, err := database.Open(conf)
	if err != nil {
		return Store{}, err
	}
	if err = database.Migrate(sqlDB.DB); err != nil {
		_ = sqlDB.Close()
		return Store{}, err
	}

	db := pgrepos.New(sqlDB)
	return Store{
		Tx:        db,
		Users:     pgrepos.NewUserRepository(db),
		Courses:   pgrepos.NewCourseRepository(db),
		Exercises: pgrepos.NewExerciseRepository(db),
		Blobs:     blobsvc.NewUnavailableStore(),
		SQL:       sqlDB.DB,
		Closer:    func(context.Context) error { return sqlDB.Close() },
	}, nil
}

func newMemoryStore() Store {
	db := inmemdb.Open()
	return Store{
		Tx:        db,
		Users:     inmemdb.NewUserRepository(db),
		Courses:   inmemdb.NewCourseRepository(db),
		Exercises: inmemdb.NewExerciseRepository(db),
		Blobs:     blobsvc.NewUnavailableStore(),
		Closer:    func(context.Context) error { return nil },
	}
}

func newBlobCleaner(store core.BlobStore, logger core.Logger, conf *core.Config) (*blobsvc.Cleaner, error) {
	return blobsvc.NewCleaner(store, logger, conf.Blob)
}

func newEmailTemplates(conf *core.Config) (*core.EmailTemplates, error) {
	return core.ParseEmailTemplates(assets.EmailTemplates, assets.EmailTemplatesDir, conf)
}

func newEmailService(conf *core.Config, tmpls *core.EmailTemplates, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, tmpls, logger)
	}
	return emailsvc.NewSendgridService(conf, tmpls, logger)
}

func newValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	course.InitValidators(validate, translator)
	return validate, translator
}

func newCourseService(
	repo course.Repository,
	exercises exercise.Repository,
	usrSvc *user.Service,
	tx core.Transactor,
	cleaner *blobsvc.Cleaner,
	validate *validator.Validate,
	translator ut.Translator,
	logger core.Logger,
) *course.Service {
	return course.NewService(repo, exercises, usrSvc, tx, cleaner, validate, translator, logger)
}

func newExerciseService(
	repo exercise.Repository,
	tx core.Transactor,
	courseSvc *course.Service,
	logger core.Logger,
) *exercise.Service {
	return exercise.NewService(repo, tx, courseSvc, logger)
}

func newServer(
	conf *core.Config,
	logger core.Logger,
	usrSvc *user.Service,
	courseSvc *course.Service,
	exerciseSvc *exercise.Service,
	validate *validator.Validate,
	translator ut.Translator,
) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:        conf,
		Logger:      logger,
		UserSvc:     usrSvc,
		CourseSvc:   courseSvc,
		ExerciseSvc: exerciseSvc,
		Validate:    validate,
		Translator:  translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStore))
	must(c.Provide(newBlobCleaner))
	must(c.Provide(newEmailTemplates))
	must(c.Provide(newEmailService))
	must(c.Provide(newValidator))
	must(c.Provide(user.NewService))
	must(c.Provide(newCourseService))
	must(c.Provide(newExerciseService))
	must(c.Provide(echoapi.NewAuth))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
