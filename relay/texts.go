package relay

import (
	"fmt"
	"strings"
)

// Texts is the catalog of every user-visible string. Labels double as the
// intents matched on incoming text, so a relabelled button keeps working as
// long as the same catalog renders and parses it. Templates may contain {id}.
type Texts struct {
	Welcome         string `yaml:"welcome"`
	MessageButton   string `yaml:"message_button"`
	ProposeButton   string `yaml:"propose_button"`
	SubmitButton    string `yaml:"submit_button"`
	CancelButton    string `yaml:"cancel_button"`
	Blocked         string `yaml:"blocked"`
	ProposalsHidden string `yaml:"proposals_hidden"`
	LimitReached    string `yaml:"limit_reached"`
	Instructions    string `yaml:"instructions"`
	Submitted       string `yaml:"submitted"`
	Cancelled       string `yaml:"cancelled"`
	TextSaved       string `yaml:"text_saved"`
	PhotoSaved      string `yaml:"photo_saved"`
	VideoSaved      string `yaml:"video_saved"`
	ProposalFull    string `yaml:"proposal_full"`
	MessagePrompt   string `yaml:"message_prompt"`
	MessageSent     string `yaml:"message_sent"`
	MessageDropped  string `yaml:"message_dropped"`
	UserFallback    string `yaml:"user_fallback"`
	Throttled       string `yaml:"throttled"`

	NewUserHeader  string `yaml:"new_user_header"`
	NoUsername     string `yaml:"no_username"`
	ProposalHeader string `yaml:"proposal_header"`
	MessageHeader  string `yaml:"message_header"`
	BlockButton    string `yaml:"block_button"`
	ReplyButton    string `yaml:"reply_button"`

	AdminWelcome      string `yaml:"admin_welcome"`
	AdminBlockedList  string `yaml:"admin_blocked_list"`
	AdminLimitedList  string `yaml:"admin_limited_list"`
	AdminStats        string `yaml:"admin_stats"`
	AdminToggle       string `yaml:"admin_toggle"`
	AdminFallback     string `yaml:"admin_fallback"`
	BlockedHeader     string `yaml:"blocked_header"`
	NobodyBlocked     string `yaml:"nobody_blocked"`
	UnblockButton     string `yaml:"unblock_button"`
	LimitedHeader     string `yaml:"limited_header"`
	NobodyLimited     string `yaml:"nobody_limited"`
	ClearLimitButton  string `yaml:"clear_limit_button"`
	StatsLine         string `yaml:"stats_line"`
	ToggleVisible     string `yaml:"toggle_visible"`
	ToggleHidden      string `yaml:"toggle_hidden"`
	UserBlocked       string `yaml:"user_blocked"`
	UserUnblocked     string `yaml:"user_unblocked"`
	ReplyChosen       string `yaml:"reply_chosen"`
	ReplyCancelButton string `yaml:"reply_cancel_button"`
	ReplyPrompt       string `yaml:"reply_prompt"`
	ReplyCancelled    string `yaml:"reply_cancelled"`
	ReplyPrefix       string `yaml:"reply_prefix"`
	ReplySent         string `yaml:"reply_sent"`
	LimitsCleared     string `yaml:"limits_cleared"`
}

// DefaultTexts returns the stock Uzbek catalog.
func DefaultTexts() Texts {
	return Texts{
		Welcome:         "Botga xush kelibsiz!",
		MessageButton:   "✉️ Xabar yuborish",
		ProposeButton:   "Taklif yuborish",
		SubmitButton:    "Yuborish",
		CancelButton:    "Bekor qilish",
		Blocked:         "🚫 Siz bloklangansiz.",
		ProposalsHidden: "⚠️ Sozlamalar o'zgartirilgan! Botni menyu orqali yangilang.",
		LimitReached:    "⚠️ Limitingiz tugagan. Boshqa taklif yubora olmaysiz.",
		Instructions: "✍️ Taklifingizni kiriting. \n\nFoydalanish yo'riqnomasi: " +
			"\n1-Manhwaga oid rasm yoki videoni yuboring, bot uni vaqtinchalik saqlab turadi. " +
			"\n2-Manhwa nomini yuboring(inlgliz yoki rus tilida). " +
			"\n3-Izoh qo'shing(ixtiyoriy). " +
			"\n4-Yuborish tugmasini bosing. " +
			"\n\nOgohlantirish: faqatgina bitta taklif yubora olasiz, shuning uchun bunga etiborli bo'ling.",
		Submitted:      "✅ Taklif yuborildi!",
		Cancelled:      "❌ Taklif bekor qilindi.",
		TextSaved:      "✅ Xabar saqlandi. Izoh qo'shing yoki 'Yuborish' tugmasini bosing.",
		PhotoSaved:     "✅ Rasm saqlandi. Nomini kiriting.",
		VideoSaved:     "✅ Video saqlandi. Nomini kiriting.",
		ProposalFull:   "⚠️ Taklifga boshqa narsa qo'shib bo'lmaydi. 'Yuborish' yoki 'Bekor qilish' tugmasini bosing.",
		MessagePrompt:  "✍️ Xabaringizni kiriting:",
		MessageSent:    "✅ Xabaringiz yuborildi!",
		MessageDropped: "❌ Xabar yuborish bekor qilindi.",
		UserFallback:   "👉 Tugmalardan foydalaning.",
		Throttled:      "⏳ Biroz kuting va qayta urinib ko'ring.",

		NewUserHeader:  "🆕 Yangi foydalanuvchi:",
		NoUsername:     "❌ username yo‘q",
		ProposalHeader: "📩 Taklif",
		MessageHeader:  "📩 Yangi xabar:",
		BlockButton:    "🚫 Bloklash",
		ReplyButton:    "✍️ Javob yozish",

		AdminWelcome:      "👋 Salom Admin!",
		AdminBlockedList:  "📋 Bloklanganlar ro'yxati",
		AdminLimitedList:  "📋 Limiti tugaganlar",
		AdminStats:        "📊 Statistika",
		AdminToggle:       "⚙️ Taklif tugmasi boshqaruvi",
		AdminFallback:     "👉 Admin menyusidagi tugmalardan foydalaning.",
		BlockedHeader:     "🚫 Bloklanganlar:",
		NobodyBlocked:     "🚫 Bloklanganlar: Hech kim yo‘q",
		UnblockButton:     "♻️ Blokdan ochish {id}",
		LimitedHeader:     "📋 Limiti tugaganlar:",
		NobodyLimited:     "📋 Limiti tugaganlar: Hech kim yo‘q",
		ClearLimitButton:  "♻️ Limitni ochish",
		StatsLine:         "📊 Foydalanuvchilar soni:",
		ToggleVisible:     "⚙️ Taklif tugmasi ko‘rinadigan qilindi",
		ToggleHidden:      "⚙️ Taklif tugmasi ko‘rinmaydigan qilindi",
		UserBlocked:       "🚫 {id} bloklandi!",
		UserUnblocked:     "♻️ {id} blokdan ochildi!",
		ReplyChosen:       "✍️ Javob yozish tanlandi:",
		ReplyCancelButton: "❌ Bekor qilish",
		ReplyPrompt:       "✍️ Javob yozing:",
		ReplyCancelled:    "❌ Javob yozish bekor qilindi.",
		ReplyPrefix:       "💬 Admin xabari:",
		ReplySent:         "✅ Javob foydalanuvchiga yuborildi!",
		LimitsCleared:     "✅ Barcha foydalanuvchilar limiti ochildi!",
	}
}

// WithID substitutes {id} in a template.
func WithID(tpl string, uid UID) string {
	return strings.ReplaceAll(tpl, "{id}", uid.String())
}

func (t *Texts) handle(a Author) string {
	if a.Username == "" {
		return t.NoUsername
	}
	return "@" + a.Username
}

// NewUserNotice is the admin notification for a first contact.
func (t *Texts) NewUserNotice(a Author) string {
	return fmt.Sprintf("%s\n\n👤 %s\n🆔 %d\n🔗 %s", t.NewUserHeader, a.DisplayName, a.ID, t.handle(a))
}

// ProposalText renders a text item delivered to the admin.
func (t *Texts) ProposalText(a Author, content string) string {
	return fmt.Sprintf("%s (%s):\n\n👤 %s\n🆔 %d\n🔗 %s\n\n%s",
		t.ProposalHeader, ItemText, a.DisplayName, a.ID, t.handle(a), content)
}

// ProposalCaption renders the caption of a media item delivered to the admin.
func (t *Texts) ProposalCaption(a Author, kind ItemKind) string {
	return fmt.Sprintf("%s (%s) 👤 %s 🆔 %d 🔗 %s", t.ProposalHeader, kind, a.DisplayName, a.ID, t.handle(a))
}

// FreeMessage renders a free-form user message delivered to the admin.
func (t *Texts) FreeMessage(a Author, text string) string {
	return fmt.Sprintf("%s\n\n👤 %s\n🆔 %d\n🔗 %s\n\n💬 %s", t.MessageHeader, a.DisplayName, a.ID, t.handle(a), text)
}

// AdminReply renders an admin reply delivered to a user.
func (t *Texts) AdminReply(text string) string {
	if text == "" {
		return t.ReplyPrefix
	}
	return t.ReplyPrefix + "\n\n" + text
}

// Stats renders the registry size report.
func (t *Texts) Stats(users int) string {
	return fmt.Sprintf("%s %d", t.StatsLine, users)
}

// BlockedList renders the block list report.
func (t *Texts) BlockedList(set UIDSet) string {
	return t.BlockedHeader + "\n\n" + set.Join("\n")
}

// LimitedList renders the rate-limited set report.
func (t *Texts) LimitedList(set UIDSet) string {
	return t.LimitedHeader + " [" + set.Join(", ") + "]"
}

// Toggled reports the new proposal visibility.
func (t *Texts) Toggled(visible bool) string {
	if visible {
		return t.ToggleVisible
	}
	return t.ToggleHidden
}
