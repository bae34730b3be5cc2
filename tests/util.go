package testutil

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/slps/canteen/core"
	"github.com/slps/canteen/core/account"
	"github.com/slps/canteen/core/chat"
	"github.com/slps/canteen/core/feedback"
	"github.com/slps/canteen/core/health"
	"github.com/slps/canteen/core/menu"
	"github.com/slps/canteen/core/order"
	"github.com/slps/canteen/core/sheet"
	appfs "github.com/slps/canteen/fs"
	emailsvc "github.com/slps/canteen/services/email"
	logsvc "github.com/slps/canteen/services/logger"
	memsession "github.com/slps/canteen/storage/session/memory"
	memsheet "github.com/slps/canteen/storage/sheets/memory"
)

// Services holds every service wired on an in-memory store.
type Services struct {
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	Store      *memsheet.Store
	Sessions   *memsession.Store
	Accounts   *account.Service
	Menu       *menu.Service
	Health     *health.Service
	Orders     *order.Service
	Feedback   *feedback.Service
	Chat       *chat.Service
}

// NewLogger returns a logger writing nowhere.
func NewLogger() core.Logger {
	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "TEST : ", log.LstdFlags), conf)
	logger.Enable(false)
	return logger
}

func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	account.InitValidators(validate, translator)
	return validate, translator
}

// NewStore returns an in-memory store holding every table, empty.
func NewStore(t *testing.T) *memsheet.Store {
	store := memsheet.NewStore()
	if err := sheet.Bootstrap(context.Background(), store); err != nil {
		t.Fatalf("NewStore() failed: %v", err)
	}
	return store
}

// NewServices wires the services on a fresh store. Emails are captured synchronously by the console mock.
func NewServices(t *testing.T, llm ...chat.LLM) *Services {
	conf := core.NewTestConfig()
	logger := NewLogger()
	validate, translator := NewValidator()
	store := NewStore(t)
	sessions := memsession.NewStore()
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)

	kb, err := chat.LoadKnowledgeBase(appfs.FS, chat.KnowledgeFile)
	if err != nil {
		t.Fatalf("NewServices() failed: %v", err)
	}
	var model chat.LLM
	if len(llm) > 0 {
		model = llm[0]
	}

	s := &Services{
		Conf:       conf,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		Store:      store,
		Sessions:   sessions,
	}
	s.Accounts = account.NewService(conf, store, sessions, validate)
	s.Menu = menu.NewService(store)
	s.Health = health.NewService(store, s.Menu)
	s.Orders = order.NewService(store, s.Accounts, s.Health, mailSvc, logger)
	s.Feedback = feedback.NewService(conf, store, mailSvc, validate)
	s.Chat = chat.NewService(model, kb, s.Orders, s.Menu, logger)

	emailsvc.ResetSentMessages()
	return s
}

func CreateStudent(t *testing.T, svc *account.Service, name, email, pwd, admissionID, className string) account.Student {
	std, err := svc.RegisterStudent(context.Background(), account.NewStudent{
		Name:        name,
		Email:       email,
		Password:    pwd,
		AdmissionID: admissionID,
		ClassName:   className,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

func CreateTeacher(t *testing.T, svc *account.Service, name, staffID, email, pwd string) account.Teacher {
	tch, err := svc.RegisterTeacher(context.Background(), account.NewTeacher{
		Name:     name,
		StaffID:  staffID,
		Email:    email,
		Password: pwd,
	})
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return tch
}

func CreateStaff(t *testing.T, svc *account.Service, staffID, name, email, pwd string) account.Staff {
	stf, _, err := svc.AddStaff(context.Background(), staffID, name, email, pwd)
	if err != nil {
		t.Fatalf("CreateStaff() failed: %v", err)
	}
	return stf
}

// SeedMenu appends `items` to the menu, or the default items when none are given.
func SeedMenu(t *testing.T, svc *menu.Service, items ...menu.NewItem) []menu.Item {
	if len(items) == 0 {
		for _, item := range menu.Defaults {
			items = append(items, menu.NewItem{Name: item.Name, Price: item.Price, Benefits: item.Benefits, Image: item.Image})
		}
	}
	added := make([]menu.Item, 0, len(items))
	for _, ni := range items {
		item, err := svc.Add(context.Background(), ni)
		if err != nil {
			t.Fatalf("SeedMenu() failed: %v", err)
		}
		added = append(added, item)
	}
	return added
}

// StudentSession returns the session a logged-in student gets.
func StudentSession(std account.Student) account.Session {
	return account.Session{
		LoggedIn:  true,
		UserID:    std.UserID,
		Role:      account.RoleStudent,
		Name:      std.Name,
		Email:     std.Email,
		ClassName: std.ClassName,
	}
}

func TeacherSession(tch account.Teacher) account.Session {
	return account.Session{
		LoggedIn:  true,
		UserID:    tch.StaffID,
		Role:      account.RoleTeacher,
		Name:      tch.Name,
		Email:     tch.Email,
		ClassName: account.TeacherClass,
	}
}
