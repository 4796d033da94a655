package main

import (
	"cmp"
	"os"

	"github.com/rs/zerolog"

	"github.com/sushihentaime/socialnet/internal/blogservice"
	"github.com/sushihentaime/socialnet/internal/commentservice"
	"github.com/sushihentaime/socialnet/internal/common"
	"github.com/sushihentaime/socialnet/internal/mailservice"
	"github.com/sushihentaime/socialnet/internal/postservice"
	"github.com/sushihentaime/socialnet/internal/userservice"
)

type application struct {
	config         *Config
	logger         zerolog.Logger
	userService    *userservice.UserService
	blogService    *blogservice.BlogService
	postService    *postservice.PostService
	commentService *commentservice.CommentService
	mailService    *mailservice.MailService
	broker         *common.MessageBroker
}

func main() {
	cfg, err := loadConfig(cmp.Or(os.Getenv("CONFIG_FILE"), ".env"))
	if err != nil {
		boot := common.NewLogger("production", "info")
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := common.NewLogger(cfg.Environment, cfg.LogLevel)

	db, err := common.NewDB(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBMaxIdleTime)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to the database")
	}
	defer common.CloseDB(db)

	broker, err := common.NewMessageBroker(cfg.rabbitURI())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to the message broker")
	}
	defer broker.Close()

	if err := broker.Declare(common.UserBindings); err != nil {
		logger.Fatal().Err(err).Msg("failed to declare the user exchange")
	}

	blogs := blogservice.NewBlogService(db)
	posts := postservice.NewPostService(db, blogs)

	app := &application{
		config:         cfg,
		logger:         logger,
		userService:    userservice.NewUserService(db, broker, common.NewCache(cfg.CacheTTL, 2*cfg.CacheTTL), blogs),
		blogService:    blogs,
		postService:    posts,
		commentService: commentservice.NewCommentService(db, posts),
		broker:         broker,
		mailService: mailservice.NewMailService(broker, mailservice.Config{
			Host:          cfg.MailHost,
			Port:          cfg.MailPort,
			Username:      cfg.MailUser,
			Password:      cfg.MailPassword,
			Sender:        cfg.MailSender,
			ActivationURL: cfg.MailActivationURL,
		}, logger),
	}

	if err := app.mailService.SendActivationEmail(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start the activation mail consumer")
	}

	if err := app.serve(); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
