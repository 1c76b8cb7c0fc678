package wa

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/mdp/qrterminal"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	walog "go.mau.fi/whatsmeow/util/log"
	_ "modernc.org/sqlite"

	"github.com/fardannozami/scoopquest/pkg/errors"
	"github.com/fardannozami/scoopquest/pkg/log"
)

var errNotInitialized = errors.New("client not initialized")

type MessageHandler func(ctx context.Context, client *whatsmeow.Client, evt *events.Message)

// ReplyOptions make outgoing messages look typed by a person.
type ReplyOptions struct {
	DelayMin   time.Duration
	DelayMax   time.Duration // 0 = use DelayMin as fixed
	ShowTyping bool
}

type Service struct {
	client         *whatsmeow.Client
	dbPath         string
	log            walog.Logger
	reply          ReplyOptions
	messageHandler MessageHandler
}

func NewService(dbPath string, reply ReplyOptions) *Service {
	return &Service{
		dbPath: dbPath,
		log:    log.WhatsApp("Client"),
		reply:  reply,
	}
}

func (s *Service) Initialize(ctx context.Context) error {
	// whatsmeow shares the engine's database file; WAL mode persists on the
	// file so the pragmas match the ones the engine opens with.
	dbAddress := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", s.dbPath)
	container, err := sqlstore.New(ctx, "sqlite", dbAddress, s.log.Sub("Database"))
	if err != nil {
		return errors.Wrap(err, "failed to initialize database")
	}

	devices, err := container.GetAllDevices(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get devices")
	}

	var device *store.Device
	if len(devices) > 0 {
		device = devices[0]
	} else {
		device = container.NewDevice()
	}

	s.client = whatsmeow.NewClient(device, s.log)
	s.registerEventHandlers()

	return nil
}

func (s *Service) Connect() error {
	if s.client == nil {
		return errNotInitialized
	}
	if s.client.IsConnected() {
		return nil
	}
	return errors.Wrap(s.client.Connect(), "connect")
}

func (s *Service) Disconnect() {
	if s.client != nil {
		s.client.Disconnect()
	}
}

func (s *Service) SetMessageHandler(handler MessageHandler) {
	s.messageHandler = handler
}

func (s *Service) registerEventHandlers() {
	s.client.AddEventHandler(func(evt interface{}) {
		switch v := evt.(type) {
		case *events.Message:
			if s.messageHandler != nil {
				go s.messageHandler(context.Background(), s.client, v)
			}
		case *events.Connected:
			log.Info("WhatsApp connected")
		case *events.LoggedOut:
			log.Warnf("WhatsApp logged out: %v", v.Reason)
		}
	})
}

func (s *Service) GetClient() *whatsmeow.Client {
	return s.client
}

func (s *Service) IsLoggedIn() bool {
	return s.client.Store.ID != nil
}

// SendText sends a plain message, waiting the configured reply delay first.
func (s *Service) SendText(ctx context.Context, to types.JID, text string) error {
	if s.client == nil {
		return errNotInitialized
	}

	if delay := s.replyDelay(); delay > 0 {
		if s.reply.ShowTyping {
			_ = s.client.SendChatPresence(ctx, to, types.ChatPresenceComposing, types.ChatPresenceMediaText)
		}
		log.Debugf("Delaying reply by %s", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if s.reply.ShowTyping {
			_ = s.client.SendChatPresence(ctx, to, types.ChatPresencePaused, types.ChatPresenceMediaText)
		}
	}

	_, err := s.client.SendMessage(ctx, to, &waE2E.Message{Conversation: &text})
	return errors.Wrapf(err, "send to %s", to)
}

func (s *Service) replyDelay() time.Duration {
	d := s.reply.DelayMin
	if s.reply.DelayMax > s.reply.DelayMin {
		d += time.Duration(rand.Int63n(int64(s.reply.DelayMax - s.reply.DelayMin + 1)))
	}
	return d
}

func (s *Service) Pair(ctx context.Context, phone string) (string, error) {
	if s.IsLoggedIn() {
		return "", errors.New("already logged in")
	}
	if !s.client.IsConnected() {
		return "", errors.New("client not connected")
	}
	return s.client.PairPhone(ctx, phone, true, whatsmeow.PairClientChrome, "Chrome (Linux)")
}

// PrintQR connects and renders login QR codes until the channel closes.
func (s *Service) PrintQR(ctx context.Context) {
	if s.client.Store.ID != nil {
		return
	}
	qrChan, _ := s.client.GetQRChannel(ctx)
	if err := s.client.Connect(); err != nil {
		log.Errorf("Failed to connect for QR: %v", err)
		return
	}
	for evt := range qrChan {
		if evt.Event == "code" {
			log.Info("Scan the QR code below with WhatsApp (Linked Devices)")
			qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, os.Stdout)
		} else {
			log.Infof("Login event: %s", evt.Event)
		}
	}
}
