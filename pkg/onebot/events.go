// Package onebot implements the OneBot v11 payload layer: the typed event
// taxonomy, the cascading JSON decoder, and the correlation store for
// asynchronous API results.
package onebot

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Event is a decoded OneBot v11 event. Concrete types embed BaseEvent and
// add the fields of their post_type/detail_type/sub_type combination.
type Event interface {
	// SelfIdentity returns the bot account the event belongs to, as a
	// string (session registry key).
	SelfIdentity() string

	// TypeKey returns the taxonomy key "post_type[.detail][.sub_type]".
	TypeKey() string

	// Check reports whether the parsed struct actually represents this
	// event type. Decoding tries candidates most-specific first; a Check
	// failure just moves the cascade on to the next candidate.
	Check() error
}

// BaseEvent is the universal OneBot v11 event envelope. It doubles as the
// decode fallback: any well-formed event parses into it even when no more
// specific type matches.
type BaseEvent struct {
	Time     int64  `json:"time"`
	SelfID   int64  `json:"self_id"`
	PostType string `json:"post_type"`
}

func (e *BaseEvent) SelfIdentity() string { return strconv.FormatInt(e.SelfID, 10) }
func (e *BaseEvent) TypeKey() string      { return e.PostType }

func (e *BaseEvent) Check() error {
	if e.PostType == "" {
		return fmt.Errorf("missing post_type")
	}
	return nil
}

func checkField(name, got, want string) error {
	if got != want {
		return fmt.Errorf("%s is %q, want %q", name, got, want)
	}
	return nil
}

// --- message events ---

// Sender describes the account that sent a message. All fields are
// best-effort; implementations may omit any of them.
type Sender struct {
	UserID   int64  `json:"user_id,omitempty"`
	Nickname string `json:"nickname,omitempty"`
	Card     string `json:"card,omitempty"`
	Sex      string `json:"sex,omitempty"`
	Age      int32  `json:"age,omitempty"`
	Area     string `json:"area,omitempty"`
	Level    string `json:"level,omitempty"`
	Role     string `json:"role,omitempty"`
	Title    string `json:"title,omitempty"`
}

// MessageEvent is the common shape of message.* events. Message is kept
// raw: OneBot allows both CQ-code strings and segment arrays, and message
// content semantics are out of scope here.
type MessageEvent struct {
	BaseEvent
	MessageType string          `json:"message_type"`
	SubType     string          `json:"sub_type"`
	MessageID   int32           `json:"message_id"`
	UserID      int64           `json:"user_id"`
	Message     json.RawMessage `json:"message"`
	RawMessage  string          `json:"raw_message"`
	Font        int32           `json:"font"`
	Sender      Sender          `json:"sender"`
}

func (e *MessageEvent) TypeKey() string {
	return joinKey(e.PostType, e.MessageType, e.SubType)
}

func (e *MessageEvent) Check() error {
	if err := checkField("post_type", e.PostType, "message"); err != nil {
		return err
	}
	if e.MessageType == "" {
		return fmt.Errorf("missing message_type")
	}
	return nil
}

// PrivateMessageEvent is message.private.
type PrivateMessageEvent struct {
	MessageEvent
}

func (e *PrivateMessageEvent) Check() error {
	if err := e.MessageEvent.Check(); err != nil {
		return err
	}
	return checkField("message_type", e.MessageType, "private")
}

// GroupMessageEvent is message.group.
type GroupMessageEvent struct {
	MessageEvent
	GroupID int64 `json:"group_id"`
}

func (e *GroupMessageEvent) Check() error {
	if err := e.MessageEvent.Check(); err != nil {
		return err
	}
	return checkField("message_type", e.MessageType, "group")
}

// --- notice events ---

// NoticeEvent is the common shape of notice.* events.
type NoticeEvent struct {
	BaseEvent
	NoticeType string `json:"notice_type"`
}

func (e *NoticeEvent) TypeKey() string {
	return joinKey(e.PostType, e.NoticeType, "")
}

func (e *NoticeEvent) Check() error {
	if err := checkField("post_type", e.PostType, "notice"); err != nil {
		return err
	}
	if e.NoticeType == "" {
		return fmt.Errorf("missing notice_type")
	}
	return nil
}

// UploadFile describes the file of a notice.group_upload event.
type UploadFile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Size  int64  `json:"size"`
	BusID int64  `json:"busid"`
}

// GroupUploadNoticeEvent is notice.group_upload.
type GroupUploadNoticeEvent struct {
	NoticeEvent
	GroupID int64      `json:"group_id"`
	UserID  int64      `json:"user_id"`
	File    UploadFile `json:"file"`
}

func (e *GroupUploadNoticeEvent) Check() error {
	if err := e.NoticeEvent.Check(); err != nil {
		return err
	}
	return checkField("notice_type", e.NoticeType, "group_upload")
}

// GroupAdminNoticeEvent is notice.group_admin.
type GroupAdminNoticeEvent struct {
	NoticeEvent
	SubType string `json:"sub_type"`
	GroupID int64  `json:"group_id"`
	UserID  int64  `json:"user_id"`
}

func (e *GroupAdminNoticeEvent) TypeKey() string {
	return joinKey(e.PostType, e.NoticeType, e.SubType)
}

func (e *GroupAdminNoticeEvent) Check() error {
	if err := e.NoticeEvent.Check(); err != nil {
		return err
	}
	return checkField("notice_type", e.NoticeType, "group_admin")
}

// GroupDecreaseNoticeEvent is notice.group_decrease.
type GroupDecreaseNoticeEvent struct {
	NoticeEvent
	SubType    string `json:"sub_type"`
	GroupID    int64  `json:"group_id"`
	OperatorID int64  `json:"operator_id"`
	UserID     int64  `json:"user_id"`
}

func (e *GroupDecreaseNoticeEvent) TypeKey() string {
	return joinKey(e.PostType, e.NoticeType, e.SubType)
}

func (e *GroupDecreaseNoticeEvent) Check() error {
	if err := e.NoticeEvent.Check(); err != nil {
		return err
	}
	return checkField("notice_type", e.NoticeType, "group_decrease")
}

// GroupIncreaseNoticeEvent is notice.group_increase.
type GroupIncreaseNoticeEvent struct {
	NoticeEvent
	SubType    string `json:"sub_type"`
	GroupID    int64  `json:"group_id"`
	OperatorID int64  `json:"operator_id"`
	UserID     int64  `json:"user_id"`
}

func (e *GroupIncreaseNoticeEvent) TypeKey() string {
	return joinKey(e.PostType, e.NoticeType, e.SubType)
}

func (e *GroupIncreaseNoticeEvent) Check() error {
	if err := e.NoticeEvent.Check(); err != nil {
		return err
	}
	return checkField("notice_type", e.NoticeType, "group_increase")
}

// GroupBanNoticeEvent is notice.group_ban.
type GroupBanNoticeEvent struct {
	NoticeEvent
	SubType    string `json:"sub_type"`
	GroupID    int64  `json:"group_id"`
	OperatorID int64  `json:"operator_id"`
	UserID     int64  `json:"user_id"`
	Duration   int64  `json:"duration"`
}

func (e *GroupBanNoticeEvent) TypeKey() string {
	return joinKey(e.PostType, e.NoticeType, e.SubType)
}

func (e *GroupBanNoticeEvent) Check() error {
	if err := e.NoticeEvent.Check(); err != nil {
		return err
	}
	return checkField("notice_type", e.NoticeType, "group_ban")
}

// FriendAddNoticeEvent is notice.friend_add.
type FriendAddNoticeEvent struct {
	NoticeEvent
	UserID int64 `json:"user_id"`
}

func (e *FriendAddNoticeEvent) Check() error {
	if err := e.NoticeEvent.Check(); err != nil {
		return err
	}
	return checkField("notice_type", e.NoticeType, "friend_add")
}

// GroupRecallNoticeEvent is notice.group_recall.
type GroupRecallNoticeEvent struct {
	NoticeEvent
	GroupID    int64 `json:"group_id"`
	UserID     int64 `json:"user_id"`
	OperatorID int64 `json:"operator_id"`
	MessageID  int64 `json:"message_id"`
}

func (e *GroupRecallNoticeEvent) Check() error {
	if err := e.NoticeEvent.Check(); err != nil {
		return err
	}
	return checkField("notice_type", e.NoticeType, "group_recall")
}

// FriendRecallNoticeEvent is notice.friend_recall.
type FriendRecallNoticeEvent struct {
	NoticeEvent
	UserID    int64 `json:"user_id"`
	MessageID int64 `json:"message_id"`
}

func (e *FriendRecallNoticeEvent) Check() error {
	if err := e.NoticeEvent.Check(); err != nil {
		return err
	}
	return checkField("notice_type", e.NoticeType, "friend_recall")
}

// NotifyEvent is the common shape of notice.notify.* events.
type NotifyEvent struct {
	NoticeEvent
	SubType string `json:"sub_type"`
	GroupID int64  `json:"group_id"`
	UserID  int64  `json:"user_id"`
}

func (e *NotifyEvent) TypeKey() string {
	return joinKey(e.PostType, e.NoticeType, e.SubType)
}

func (e *NotifyEvent) Check() error {
	if err := e.NoticeEvent.Check(); err != nil {
		return err
	}
	return checkField("notice_type", e.NoticeType, "notify")
}

// PokeNotifyEvent is notice.notify.poke.
type PokeNotifyEvent struct {
	NotifyEvent
	TargetID int64 `json:"target_id"`
}

func (e *PokeNotifyEvent) Check() error {
	if err := e.NotifyEvent.Check(); err != nil {
		return err
	}
	return checkField("sub_type", e.SubType, "poke")
}

// LuckyKingNotifyEvent is notice.notify.lucky_king.
type LuckyKingNotifyEvent struct {
	NotifyEvent
	TargetID int64 `json:"target_id"`
}

func (e *LuckyKingNotifyEvent) Check() error {
	if err := e.NotifyEvent.Check(); err != nil {
		return err
	}
	return checkField("sub_type", e.SubType, "lucky_king")
}

// HonorNotifyEvent is notice.notify.honor.
type HonorNotifyEvent struct {
	NotifyEvent
	HonorType string `json:"honor_type"`
}

func (e *HonorNotifyEvent) Check() error {
	if err := e.NotifyEvent.Check(); err != nil {
		return err
	}
	return checkField("sub_type", e.SubType, "honor")
}

// --- request events ---

// RequestEvent is the common shape of request.* events.
type RequestEvent struct {
	BaseEvent
	RequestType string `json:"request_type"`
}

func (e *RequestEvent) TypeKey() string {
	return joinKey(e.PostType, e.RequestType, "")
}

func (e *RequestEvent) Check() error {
	if err := checkField("post_type", e.PostType, "request"); err != nil {
		return err
	}
	if e.RequestType == "" {
		return fmt.Errorf("missing request_type")
	}
	return nil
}

// FriendRequestEvent is request.friend.
type FriendRequestEvent struct {
	RequestEvent
	UserID  int64  `json:"user_id"`
	Comment string `json:"comment"`
	Flag    string `json:"flag"`
}

func (e *FriendRequestEvent) Check() error {
	if err := e.RequestEvent.Check(); err != nil {
		return err
	}
	return checkField("request_type", e.RequestType, "friend")
}

// GroupRequestEvent is request.group.
type GroupRequestEvent struct {
	RequestEvent
	SubType string `json:"sub_type"`
	GroupID int64  `json:"group_id"`
	UserID  int64  `json:"user_id"`
	Comment string `json:"comment"`
	Flag    string `json:"flag"`
}

func (e *GroupRequestEvent) TypeKey() string {
	return joinKey(e.PostType, e.RequestType, e.SubType)
}

func (e *GroupRequestEvent) Check() error {
	if err := e.RequestEvent.Check(); err != nil {
		return err
	}
	return checkField("request_type", e.RequestType, "group")
}

// --- meta events ---

// MetaEvent is the common shape of meta_event.* events.
type MetaEvent struct {
	BaseEvent
	MetaEventType string `json:"meta_event_type"`
}

func (e *MetaEvent) TypeKey() string {
	return joinKey(e.PostType, e.MetaEventType, "")
}

func (e *MetaEvent) Check() error {
	if err := checkField("post_type", e.PostType, "meta_event"); err != nil {
		return err
	}
	if e.MetaEventType == "" {
		return fmt.Errorf("missing meta_event_type")
	}
	return nil
}

// LifecycleMetaEvent is meta_event.lifecycle. SubType is one of
// "connect", "enable", "disable"; forward connections use the "connect"
// variant to identify the remote bot.
type LifecycleMetaEvent struct {
	MetaEvent
	SubType string `json:"sub_type"`
}

func (e *LifecycleMetaEvent) TypeKey() string {
	return joinKey(e.PostType, e.MetaEventType, e.SubType)
}

func (e *LifecycleMetaEvent) Check() error {
	if err := e.MetaEvent.Check(); err != nil {
		return err
	}
	return checkField("meta_event_type", e.MetaEventType, "lifecycle")
}

// IsConnect reports whether this lifecycle event announces a freshly
// established connection.
func (e *LifecycleMetaEvent) IsConnect() bool { return e.SubType == "connect" }

// HeartbeatMetaEvent is meta_event.heartbeat. Status is
// implementation-defined and kept raw.
type HeartbeatMetaEvent struct {
	MetaEvent
	Status   json.RawMessage `json:"status"`
	Interval int64           `json:"interval"`
}

func (e *HeartbeatMetaEvent) Check() error {
	if err := e.MetaEvent.Check(); err != nil {
		return err
	}
	return checkField("meta_event_type", e.MetaEventType, "heartbeat")
}

func joinKey(post, detail, sub string) string {
	key := post
	if detail != "" {
		key += "." + detail
	}
	if sub != "" {
		key += "." + sub
	}
	return key
}
