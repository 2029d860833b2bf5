package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	pb "github.com/domino14/quizvault/api/rpc/quizvault"
)

const requestTimeout = 10 * time.Second

type studySession struct {
	loggedIn  bool
	username  string
	jwt       string
	sessionID uuid.UUID

	queue    []pb.Card
	counts   pb.Counts
	selected string
	status   string
}

func (s *studySession) current() *pb.Card {
	if len(s.queue) == 0 {
		return nil
	}
	return &s.queue[0]
}

func (s *studySession) View() string {
	if !s.loggedIn {
		return "You are not logged in. Hit enter to open a log-in window."
	}
	header := "You are logged in as " + s.username
	var body, footer string
	card := s.current()
	if card == nil {
		body = "There are no cards loaded. Type \"next\" to load your due cards,\n" +
			"\"add <question id>\" to start studying a question, or \"forecast\"."
	} else {
		body = strings.Repeat("-", 20) + "\n\n"
		body += fmt.Sprintf("  Question %d  [%s]\n", card.QuestionID, card.CardType)
		body += fmt.Sprintf("  ease %.2f  interval %dd  lapses %d\n", card.EaseFactor, card.IntervalDays, card.Lapses)
		if s.selected != "" {
			body += "  your answer: " + s.selected + "\n"
		}
		body += fmt.Sprintf("\n  %d new, %d learning, %d review in this batch\n",
			s.counts.New, s.counts.Learning, s.counts.Review)
		footer = "type an option letter, then\n(1) Again    (2) Hard    (3) Good    (4) Easy \n\n" +
			"      (S) Suspend   (B) Bury"
	}
	if s.status != "" {
		body += "\n" + s.status
	}
	return header + "\n\n" + body + "\n\n" +
		strings.Repeat("-", 25) + "\n" + footer + "\n"
}

type model struct {
	textInput             textinput.Model
	session               *studySession
	client                pb.QuizVaultServiceClient
	callbackserverStarted bool
	authURI               string
	callbackChan          chan string
}

type loginPacket struct {
	username string
	jwt      string
}

type dueLoaded struct {
	cards  []pb.Card
	counts pb.Counts
}

type statusMsg string

func initialModel(authURI, serverURI string) model {
	ti := textinput.New()
	ti.Placeholder = "Command"
	ti.Focus()
	ti.CharLimit = 32
	ti.Width = 32

	callbackChan := make(chan string)
	http.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token != "" {
			fmt.Fprintf(w, "Login successful! You can close this window.")
			callbackChan <- token
		} else {
			http.Error(w, "Token not found", http.StatusBadRequest)
		}
	})

	return model{
		textInput:    ti,
		session:      &studySession{sessionID: uuid.New()},
		client:       pb.NewQuizVaultServiceClient(http.DefaultClient, serverURI),
		authURI:      authURI,
		callbackChan: callbackChan,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit

		case tea.KeyEnter:
			if !m.session.loggedIn {
				if !m.callbackserverStarted {
					m.callbackserverStarted = true
					return m, loginCmd(m.authURI, m.callbackChan)
				}
				return m, nil
			}
			input := strings.TrimSpace(m.textInput.Value())
			m.textInput.Reset()
			return m, m.handleInput(input)
		}

	case loginPacket:
		m.callbackserverStarted = false
		m.session.loggedIn = true
		m.session.username = msg.username
		m.session.jwt = msg.jwt

	case dueLoaded:
		m.session.queue = msg.cards
		m.session.counts = msg.counts
		m.session.selected = ""
		if len(msg.cards) == 0 {
			m.session.status = "Nothing is due right now."
		}

	case answered:
		m.session.status = msg.status
		m.session.selected = ""
		if len(m.session.queue) > 0 {
			m.session.queue = m.session.queue[1:]
		}
		if len(m.session.queue) == 0 {
			return m, m.loadDue()
		}

	case statusMsg:
		m.session.status = string(msg)

	case string:
		log.Print("Possible error: " + msg)
	}
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m model) View() string {
	return fmt.Sprintf("%s\n\n%s\n\n", m.session.View(), m.textInput.View())
}

func (m model) handleInput(input string) tea.Cmd {
	lower := strings.ToLower(input)
	card := m.session.current()
	switch {
	case lower == "next":
		return m.loadDue()
	case lower == "forecast":
		return m.forecast()
	case strings.HasPrefix(lower, "add "):
		var qid int64
		if _, err := fmt.Sscanf(lower, "add %d", &qid); err != nil {
			return status("usage: add <question id>")
		}
		return m.addCard(qid)
	case card == nil:
		return status("No card loaded.")
	case lower == "1" || lower == "2" || lower == "3" || lower == "4":
		grade := map[string]string{"1": "again", "2": "hard", "3": "good", "4": "easy"}[lower]
		return m.submit(*card, grade)
	case lower == "s" || lower == "b":
		return m.setFlag(*card, lower == "s")
	case len(input) == 1:
		m.session.selected = strings.ToUpper(input)
		return nil
	}
	return status("Unknown command " + input)
}

func status(s string) tea.Cmd {
	return func() tea.Msg { return statusMsg(s) }
}

func authed[T any](token string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

func errStatus(err error) tea.Msg {
	if connect.CodeOf(err) == connect.CodeUnavailable {
		return statusMsg("The server is busy; please try again.")
	}
	return statusMsg("Error: " + err.Error())
}

func (m model) loadDue() tea.Cmd {
	token := m.session.jwt
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		resp, err := m.client.ListDueCards(ctx, authed(token, &pb.ListDueCardsRequest{}))
		if err != nil {
			return errStatus(err)
		}
		return dueLoaded{cards: resp.Msg.Cards, counts: resp.Msg.Counts}
	}
}

type answered struct{ status string }

func (m model) submit(card pb.Card, grade string) tea.Cmd {
	token := m.session.jwt
	req := &pb.SubmitAnswerRequest{
		CardID:         card.ID,
		Grade:          grade,
		SelectedOption: m.session.selected,
		SessionID:      m.session.sessionID.String(),
		SubmissionID:   uuid.NewString(),
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		resp, err := m.client.SubmitAnswer(ctx, authed(token, req))
		if err != nil {
			return errStatus(err)
		}
		verdict := "Incorrect."
		if resp.Msg.IsCorrect {
			verdict = "Correct."
		}
		s := fmt.Sprintf("%s Next review in %s.", verdict, resp.Msg.NextReviewDescription)
		if resp.Msg.Leech {
			s += " This card is a leech."
		}
		return answered{status: s}
	}
}

func (m model) setFlag(card pb.Card, suspend bool) tea.Cmd {
	token := m.session.jwt
	yes := true
	req := &pb.SetCardFlagsRequest{CardID: card.ID}
	what := "buried until tomorrow"
	if suspend {
		req.Suspended = &yes
		what = "suspended"
	} else {
		req.Buried = &yes
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if _, err := m.client.SetCardFlags(ctx, authed(token, req)); err != nil {
			return errStatus(err)
		}
		return answered{status: fmt.Sprintf("Card %d %s.", card.ID, what)}
	}
}

func (m model) addCard(questionID int64) tea.Cmd {
	token := m.session.jwt
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		resp, err := m.client.GetOrCreateCard(ctx, authed(token, &pb.GetOrCreateCardRequest{QuestionID: questionID}))
		if err != nil {
			return errStatus(err)
		}
		return statusMsg(fmt.Sprintf("Card %d for question %d is %s.",
			resp.Msg.Card.ID, questionID, resp.Msg.Card.CardType))
	}
}

func (m model) forecast() tea.Cmd {
	token := m.session.jwt
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		resp, err := m.client.DueForecast(ctx, authed(token, &pb.DueForecastRequest{Days: 14}))
		if err != nil {
			return errStatus(err)
		}
		days := make([]string, 0, len(resp.Msg.Breakdown))
		for d := range resp.Msg.Breakdown {
			days = append(days, d)
		}
		sort.Strings(days)
		var sb strings.Builder
		for _, d := range days {
			fmt.Fprintf(&sb, "%s: %d\n", d, resp.Msg.Breakdown[d])
		}
		if sb.Len() == 0 {
			return statusMsg("No reviews due in the next two weeks.")
		}
		return statusMsg(sb.String())
	}
}

func usernameFromToken(token string) (string, error) {
	p := jwt.NewParser()
	claims := jwt.MapClaims{}
	// As the client we don't need to (and can't) verify the signature of the
	// jwt.
	if _, _, err := p.ParseUnverified(token, &claims); err != nil {
		return "", err
	}
	username, ok := claims["usn"].(string)
	if !ok {
		return "", fmt.Errorf("invalid username claim")
	}
	return username, nil
}

func loginCmd(authURI string, callbackChan chan string) tea.Cmd {
	return func() tea.Msg {
		server := &http.Server{Addr: ":8521"}
		serverShutdownChan := make(chan struct{})
		go startCallbackServer(server, serverShutdownChan)

		openBrowser(fmt.Sprintf("%s/jwt?callback=http://localhost:8521/callback", authURI))

		shutdown := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				log.Printf("Server shutdown failed:%+v", err)
			}
			close(serverShutdownChan)
		}

		select {
		case loginjwt := <-callbackChan:
			defer shutdown()
			username, err := usernameFromToken(loginjwt)
			if err != nil {
				return "Invalid token. Please log in again. " + err.Error()
			}
			return loginPacket{username: username, jwt: loginjwt}
		case <-time.After(60 * time.Second):
			log.Println("Login timed out.")
			shutdown()
			return nil
		}
	}
}

func startCallbackServer(server *http.Server, shutdownChan <-chan struct{}) {
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on :8521: %v\n", err)
		}
	}()
	<-shutdownChan
}

func openBrowser(url string) {
	var err error

	switch os := runtime.GOOS; os {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = fmt.Errorf("unsupported platform")
	}
	if err != nil {
		log.Fatalf("Failed to open browser: %v", err)
	}
}

func main() {
	authURI := os.Getenv("AUTH_URI")
	if authURI == "" {
		authURI = "http://localhost:8000"
	}
	serverURI := os.Getenv("QUIZVAULT_URI")
	if serverURI == "" {
		serverURI = "http://localhost:8180"
	}
	m := initialModel(authURI, serverURI)

	// A token in the environment skips the browser log-in.
	if token := os.Getenv("QUIZVAULT_JWT"); token != "" {
		username, err := usernameFromToken(token)
		if err != nil {
			fmt.Printf("QUIZVAULT_JWT is not a usable token: %v\n", err)
			os.Exit(1)
		}
		m.session.loggedIn = true
		m.session.username = username
		m.session.jwt = token
	}

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
