package wa

import (
	"context"
	"fmt"

	"github.com/matheus3301/wpphist/internal/bus"
	"github.com/matheus3301/wpphist/internal/history"
	"github.com/matheus3301/wpphist/internal/session"
	"github.com/matheus3301/wpphist/internal/store"
	"github.com/matheus3301/wpphist/internal/wid"
	"go.mau.fi/whatsmeow"
	wastore "go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.uber.org/zap"

	_ "github.com/mattn/go-sqlite3"
)

// Adapter wraps the whatsmeow client and manages the WhatsApp connection.
type Adapter struct {
	client    *whatsmeow.Client
	container *sqlstore.Container
	bus       *bus.Bus
	logger    *zap.Logger
	session   string
}

// NewAdapter creates a new WhatsApp adapter for the given session.
func NewAdapter(ctx context.Context, sessionName string, b *bus.Bus, logger *zap.Logger) (*Adapter, error) {
	// Device name shown on the phone's linked devices list.
	wastore.SetOSInfo("WPP-HIST", [3]uint32{0, 1, 0})

	dbPath := session.SessionDBPath(sessionName)

	container, err := sqlstore.New(ctx, "sqlite3",
		fmt.Sprintf("file:%s?_foreign_keys=on", dbPath),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create session store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("get device store: %w", err)
	}

	client := whatsmeow.NewClient(deviceStore, nil)

	return &Adapter{
		client:    client,
		container: container,
		bus:       b,
		logger:    logger,
		session:   sessionName,
	}, nil
}

// IsLoggedIn returns whether the adapter has valid credentials.
func (a *Adapter) IsLoggedIn() bool {
	return a.client.Store.ID != nil
}

// Connect initiates the WhatsApp connection.
func (a *Adapter) Connect() error {
	a.logger.Info("connecting to WhatsApp")
	return a.client.Connect()
}

// Disconnect terminates the WhatsApp connection.
func (a *Adapter) Disconnect() {
	a.logger.Info("disconnecting from WhatsApp")
	a.client.Disconnect()
}

// Close disconnects and releases the device store.
func (a *Adapter) Close() error {
	a.Disconnect()
	return a.container.Close()
}

// Logout invalidates the session and removes credentials.
func (a *Adapter) Logout(ctx context.Context) error {
	return a.client.Logout(ctx)
}

// RegisterEventHandler adds a handler for whatsmeow events.
func (a *Adapter) RegisterEventHandler(handler whatsmeow.EventHandler) {
	a.client.AddEventHandler(handler)
}

// GetQRChannel returns the QR channel for pairing. Must be called before Connect.
func (a *Adapter) GetQRChannel(ctx context.Context) (<-chan whatsmeow.QRChannelItem, error) {
	if a.IsLoggedIn() {
		return nil, fmt.Errorf("already logged in")
	}
	ch, err := a.client.GetQRChannel(ctx)
	if err != nil {
		return nil, fmt.Errorf("get QR channel: %w", err)
	}
	return ch, nil
}

// GetContacts returns all contacts from the whatsmeow device store.
func (a *Adapter) GetContacts(ctx context.Context) []*store.Contact {
	allContacts, err := a.client.Store.Contacts.GetAllContacts(ctx)
	if err != nil {
		a.logger.Warn("failed to get contacts from device store", zap.Error(err))
		return nil
	}
	contacts := make([]*store.Contact, 0, len(allContacts))
	for jid, info := range allContacts {
		contacts = append(contacts, &store.Contact{
			JID:      a.ResolveLID(ctx, jid.ToNonAD()).String(),
			Name:     info.FullName,
			PushName: info.PushName,
		})
	}
	return contacts
}

// PhoneNumber returns the phone number from the device store, or empty string.
func (a *Adapter) PhoneNumber() string {
	if a.client.Store.ID == nil {
		return ""
	}
	return a.client.Store.ID.User
}

// ResolveLID resolves a LID JID to its phone number JID using the device store mapping.
// Returns the original JID if it's not a LID or if resolution fails.
func (a *Adapter) ResolveLID(ctx context.Context, jid types.JID) types.JID {
	if jid.Server != types.HiddenUserServer && jid.Server != types.HostedLIDServer {
		return jid
	}
	if a.client == nil || a.client.Store == nil || a.client.Store.LIDs == nil {
		return jid
	}
	pn, err := a.client.Store.LIDs.GetPNForLID(ctx, jid)
	if err != nil || pn.IsEmpty() {
		return jid
	}
	return pn
}

// FetchGroupMetadata asks the server for a group's current info.
func (a *Adapter) FetchGroupMetadata(ctx context.Context, id wid.Wid) (*history.GroupMetadata, error) {
	if !id.IsGroup() {
		return nil, fmt.Errorf("fetch group metadata: %s is not a group", id)
	}
	if a.client == nil || !a.client.IsConnected() {
		return nil, fmt.Errorf("fetch group metadata: not connected")
	}
	info, err := a.client.GetGroupInfo(ctx, id.JID())
	if err != nil {
		return nil, fmt.Errorf("get group info %s: %w", id, err)
	}
	return groupMetadataFromInfo(id, info), nil
}

func groupMetadataFromInfo(id wid.Wid, info *types.GroupInfo) *history.GroupMetadata {
	meta := &history.GroupMetadata{
		ID:           id,
		Subject:      info.Name,
		Description:  info.Topic,
		CreatedAt:    info.GroupCreated,
		Participants: make([]history.GroupParticipant, 0, len(info.Participants)),
	}
	if !info.OwnerJID.IsEmpty() {
		meta.Owner = wid.FromJID(info.OwnerJID.ToNonAD())
	}
	for _, p := range info.Participants {
		meta.Participants = append(meta.Participants, history.GroupParticipant{
			ID:           wid.FromJID(p.JID.ToNonAD()),
			IsAdmin:      p.IsAdmin,
			IsSuperAdmin: p.IsSuperAdmin,
		})
	}
	return meta
}
