// Package chat answers the canteen assistant's messages, with a language model when one is
// configured and with rules over the canteen's data otherwise.
package chat

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"github.com/slps/canteen/core"
	"github.com/slps/canteen/core/account"
	"github.com/slps/canteen/core/menu"
	"github.com/slps/canteen/core/order"
)

// Languages
const (
	LangEnglish = "english"
	LangHindi   = "hindi"
)

const (
	historySize  = 10
	myOrdersSize = 5
	popularSize  = 5
)

var (
	orderRegex = regexp.MustCompile(`order\s*#?(\d+)`)

	myOrdersPhrases = []string{"my orders", "my order", "order history", "past orders", "latest order", "last order", "recent order", "मेरे ऑर्डर", "मेरा ऑर्डर"}
	popularPhrases  = []string{"popular", "trending", "best seller", "most ordered", "favorite", "favourite", "analytics", "statistics", "insights", "लोकप्रिय"}
	todayWords      = []string{"today", "आज"}
	todaySubjects   = []string{"order", "sale", "revenue", "stats", "summary", "ऑर्डर", "सारांश"}
	menuPhrases     = []string{"menu", "food items", "what food", "available", "what do you have", "show items", "मेनू", "खाना"}
	pricePhrases    = []string{"price", "cost", "how much", "कीमत", "दाम"}
)

type (
	// Turn is one message of the conversation.
	Turn struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	Request struct {
		Message  string `json:"message"`
		History  []Turn `json:"history"`
		Language string `json:"language"`
	}

	Response struct {
		Success  bool   `json:"success"`
		Response string `json:"response"`
		Language string `json:"language"`
	}

	// LLM generates an answer to the last turn of a conversation.
	LLM interface {
		Generate(ctx context.Context, system string, turns []Turn) (string, error)
	}
)

type Service struct {
	llm    LLM
	kb     *KnowledgeBase
	orders *order.Service
	menu   *menu.Service
	logger core.Logger
}

// NewService returns a chat Service. llm may be nil.
func NewService(llm LLM, kb *KnowledgeBase, orders *order.Service, menuSvc *menu.Service, logger core.Logger) *Service {
	return &Service{llm: llm, kb: kb, orders: orders, menu: menuSvc, logger: logger}
}

// DetectLanguage switches to hindi when the message contains Devanagari.
func DetectLanguage(msg, requested string) string {
	for _, r := range msg {
		if unicode.Is(unicode.Devanagari, r) {
			return LangHindi
		}
	}
	if strings.EqualFold(strings.TrimSpace(requested), LangHindi) {
		return LangHindi
	}
	return LangEnglish
}

func tr(lang, en, hi string) string {
	if lang == LangHindi {
		return hi
	}
	return en
}

// Reply answers the message of a visitor or logged-in user.
func (svc *Service) Reply(ctx context.Context, req Request, sess account.Session) (Response, error) {
	raw := strings.TrimSpace(req.Message)
	if raw == "" {
		return Response{}, core.NewValidationError(nil, core.FieldError{Field: "message", Error: "this field is required"})
	}
	lang := DetectLanguage(raw, req.Language)

	if svc.llm != nil {
		text, err := svc.llm.Generate(ctx, systemPrompt(sess), conversation(req.History, raw))
		if err != nil {
			svc.logger.Warn(fmt.Sprintf("language model failed, falling back to rules: %v", err), err)
		} else if strings.TrimSpace(text) != "" {
			return Response{Success: true, Response: text, Language: lang}, nil
		}
	}

	text, err := svc.fallback(ctx, strings.ToLower(raw), lang, sess)
	if err != nil {
		return Response{}, err
	}
	return Response{Success: true, Response: text, Language: lang}, nil
}

func systemPrompt(sess account.Session) string {
	role := "visitor"
	if sess.LoggedIn {
		role = string(sess.Role)
	}
	return `You are an intelligent AI assistant for a school canteen ordering system.
You help students register, login, place food orders, track orders, and answer questions about the app.
You also assist staff with managing orders, students, and menu items.

User is a ` + role + `

Important:
- Be friendly, helpful, and conversational
- Keep responses concise and formatted with HTML (<br> for line breaks, <strong> for bold, <em> for italic)
- If asked about technical details and the user is not staff, politely decline and keep it general
- Give clear step-by-step guidance when explaining processes
- Respond in the language the user is asking in
- Never share passwords or staff emails`
}

// conversation keeps the last turns of the history and appends the new message.
func conversation(history []Turn, msg string) []Turn {
	if len(history) > historySize {
		history = history[len(history)-historySize:]
	}
	turns := make([]Turn, 0, len(history)+1)
	for _, t := range history {
		if t.Role == "system" || strings.TrimSpace(t.Content) == "" {
			continue
		}
		turns = append(turns, t)
	}
	return append(turns, Turn{Role: "user", Content: msg})
}

func (svc *Service) fallback(ctx context.Context, msg, lang string, sess account.Session) (string, error) {
	if m := orderRegex.FindStringSubmatch(msg); m != nil {
		return svc.orderLookup(ctx, m[1], lang, sess)
	}
	if containsAny(msg, myOrdersPhrases) && sess.Is(account.RoleStudent) {
		return svc.myOrders(ctx, lang, sess)
	}
	if containsAny(msg, popularPhrases) {
		return svc.popular(ctx, lang)
	}
	if sess.Is(account.RoleStaff) && containsAny(msg, todayWords) && containsAny(msg, todaySubjects) {
		return svc.today(ctx, lang)
	}
	if containsAny(msg, menuPhrases) {
		return svc.menuListing(ctx, lang)
	}
	if containsAny(msg, pricePhrases) {
		if text, ok, err := svc.price(ctx, msg, lang); err != nil || ok {
			return text, err
		}
	}
	if in, ok := svc.kb.Match(msg, sess.Role); ok {
		return in.Responses.In(lang), nil
	}
	return svc.kb.Default.In(lang), nil
}

func (svc *Service) orderLookup(ctx context.Context, id, lang string, sess account.Session) (string, error) {
	o, err := svc.orders.Get(ctx, id)
	notFound := tr(lang,
		fmt.Sprintf("❌ I couldn't find order <strong>#%s</strong>.", id),
		fmt.Sprintf("❌ ऑर्डर <strong>#%s</strong> नहीं मिला।", id),
	)
	if err != nil {
		if errors.Cause(err) == order.ErrNotFound {
			return notFound, nil
		}
		return "", err
	}
	// customers only see their own orders
	if !sess.Is(account.RoleStaff, account.RoleTeacher) && o.UserID != sess.UserID {
		return notFound, nil
	}
	return fmt.Sprintf("📦 <strong>%s #%s</strong><br>%s<br>💵 ₹%.2f<br>%s: <strong>%s</strong><br>🕒 %s",
		tr(lang, "Order", "ऑर्डर"), html.EscapeString(o.OrderID),
		itemsHTML(o.Items), o.TotalPrice,
		tr(lang, "Status", "स्थिति"), statusLabel(o.Status), html.EscapeString(o.Timestamp),
	), nil
}

func (svc *Service) myOrders(ctx context.Context, lang string, sess account.Session) (string, error) {
	orders, err := svc.orders.ListByUser(ctx, sess.UserID, myOrdersSize)
	if err != nil {
		return "", err
	}
	if len(orders) == 0 {
		return tr(lang,
			"📭 You have no orders yet. Open <strong>Food Selection</strong> to place your first one!",
			"📭 आपका अभी कोई ऑर्डर नहीं है। पहला ऑर्डर करने के लिए <strong>Food Selection</strong> खोलें!",
		), nil
	}
	var b strings.Builder
	b.WriteString(tr(lang, "📦 <strong>Your recent orders</strong><br><br>", "📦 <strong>आपके हाल के ऑर्डर</strong><br><br>"))
	for _, o := range orders {
		fmt.Fprintf(&b, "<strong>#%s</strong> · %s · ₹%.2f · %s<br>",
			html.EscapeString(o.OrderID), html.EscapeString(order.FormatItems(o.Items)), o.TotalPrice, statusLabel(o.Status))
	}
	return b.String(), nil
}

func (svc *Service) popular(ctx context.Context, lang string) (string, error) {
	orders, err := svc.orders.List(ctx)
	if err != nil {
		return "", err
	}
	top := order.Popular(orders, popularSize)
	if len(top) == 0 {
		return tr(lang,
			"📊 Not enough order data yet. Start ordering to see what's popular!",
			"📊 अभी पर्याप्त ऑर्डर नहीं हैं। ऑर्डर करना शुरू करें!",
		), nil
	}
	stats := order.ComputeStats(orders)
	var b strings.Builder
	b.WriteString(tr(lang, "🔥 <strong>Most ordered items</strong><br><br>", "🔥 <strong>सबसे ज़्यादा मंगाई गई चीजें</strong><br><br>"))
	for i, ic := range top {
		fmt.Fprintf(&b, "%d. <strong>%s</strong>: %d<br>", i+1, html.EscapeString(ic.Name), ic.Quantity)
	}
	fmt.Fprintf(&b, "<br>%s: %d · %s: ₹%.0f",
		tr(lang, "Total orders", "कुल ऑर्डर"), stats.Total,
		tr(lang, "Average order", "औसत ऑर्डर"), stats.Average)
	return b.String(), nil
}

func (svc *Service) today(ctx context.Context, lang string) (string, error) {
	orders, err := svc.orders.List(ctx)
	if err != nil {
		return "", err
	}
	ds := order.TodayStats(orders, svc.orders.Now())
	return fmt.Sprintf("📊 <strong>%s (%s)</strong><br>%s: %d<br>%s: %d<br>%s: %d<br>%s: ₹%.2f",
		tr(lang, "Today", "आज"), ds.Date,
		tr(lang, "Orders", "ऑर्डर"), ds.Orders,
		tr(lang, "Pending", "बाकी"), ds.Pending,
		tr(lang, "Delivered", "पहुँचाए"), ds.Delivered,
		tr(lang, "Revenue", "कमाई"), ds.Revenue,
	), nil
}

func (svc *Service) menuListing(ctx context.Context, lang string) (string, error) {
	items, err := svc.menu.Available(ctx)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return tr(lang,
			"🍽️ <strong>Nothing is available right now.</strong><br>Check back soon!",
			"🍽️ <strong>अभी कुछ उपलब्ध नहीं है।</strong><br>थोड़ी देर बाद देखें!",
		), nil
	}
	var b strings.Builder
	b.WriteString(tr(lang, "🍴 <strong>Available today</strong><br><br>", "🍴 <strong>आज उपलब्ध</strong><br><br>"))
	for i, it := range items {
		fmt.Fprintf(&b, "%d. <strong>%s</strong>: ₹%.0f<br>", i+1, html.EscapeString(it.Name), it.Price)
	}
	b.WriteString(tr(lang, "<br><em>Open Food Selection to order!</em>", "<br><em>ऑर्डर करने के लिए Food Selection खोलें!</em>"))
	return b.String(), nil
}

// price answers with the price of the menu item named in the message, if any.
func (svc *Service) price(ctx context.Context, msg, lang string) (string, bool, error) {
	items, err := svc.menu.List(ctx)
	if err != nil {
		return "", false, err
	}
	item, ok := mentionedItem(msg, items)
	if !ok {
		return "", false, nil
	}
	text := fmt.Sprintf("💵 <strong>%s</strong>: ₹%.0f", html.EscapeString(item.Name), item.Price)
	if item.SoldOut {
		text += tr(lang, " (sold out today)", " (आज खत्म)")
	}
	return text, true, nil
}

// mentionedItem finds the menu item whose full name, or else a distinctive word of it, is in msg.
func mentionedItem(msg string, items []menu.Item) (menu.Item, bool) {
	for _, it := range items {
		if strings.Contains(msg, strings.ToLower(it.Name)) {
			return it, true
		}
	}
	for _, it := range items {
		for _, w := range strings.Fields(strings.ToLower(it.Name)) {
			if len(w) > 3 && strings.Contains(msg, w) {
				return it, true
			}
		}
	}
	return menu.Item{}, false
}

func itemsHTML(items []order.Item) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("• %s x %d", html.EscapeString(it.Name), it.Quantity))
	}
	return strings.Join(parts, "<br>")
}

func statusLabel(status string) string {
	switch status {
	case order.StatusDelivered:
		return "✅ Delivered"
	case order.StatusCancelled:
		return "🚫 Cancelled"
	case order.StatusUnable:
		return "⚠️ Unable"
	}
	return "⏳ Pending"
}
