package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"timed-quiz-service/internal/api"
	"timed-quiz-service/internal/client"
)

// NewPlayCmd plays a timed quiz in the terminal against a running server.
func NewPlayCmd() *cobra.Command {
	var (
		serverURL string
		token     string
	)
	cmd := &cobra.Command{
		Use:   "play <quiz-id>",
		Short: "Take a timed quiz from the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv("QUIZ_TOKEN")
			}
			if token == "" {
				return fmt.Errorf("--token or QUIZ_TOKEN is required")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			view := &terminalView{out: cmd.OutOrStdout()}
			presenter := client.NewPresenter(client.NewHTTPClient(serverURL, token), args[0], view)
			go readSelections(ctx, cmd.InOrStdin(), presenter, view)
			return presenter.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "quiz server base URL")
	cmd.Flags().StringVar(&token, "token", "", "bearer token (see the token command)")
	return cmd
}

// readSelections turns numbered lines (1-based) into presenter selections.
func readSelections(ctx context.Context, in io.Reader, p *client.Presenter, view *terminalView) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err != nil || n < 1 {
			view.printf("enter an option number\n")
			continue
		}
		if !p.Select(n - 1) {
			view.printf("not accepting answers right now\n")
		}
	}
}

type terminalView struct {
	mu  sync.Mutex
	out io.Writer
}

func (v *terminalView) printf(format string, args ...interface{}) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, format, args...)
}

func (v *terminalView) ShowQuestion(q api.Question, number, total, remaining int) {
	var b strings.Builder
	fmt.Fprintf(&b, "\nQuestion %d/%d (%d pts, %ds)\n%s\n", number, total, q.Points, remaining, q.Prompt)
	for i, opt := range q.Options {
		fmt.Fprintf(&b, "  %d) %s\n", i+1, opt)
	}
	v.printf("%s> ", b.String())
}

func (v *terminalView) Tick(remaining int) {
	if remaining <= 5 || remaining%10 == 0 {
		v.printf("[%ds left] ", remaining)
	}
}

func (v *terminalView) ShowResult(res api.SubmitResponse) {
	switch {
	case res.TimedOut:
		v.printf("\ntime is up. score %d\n", res.TotalScore)
	case res.IsCorrect:
		v.printf("\ncorrect, +%d. score %d\n", res.PointsEarned, res.TotalScore)
	default:
		v.printf("\nwrong. score %d\n", res.TotalScore)
	}
}

func (v *terminalView) Finished(totalScore int) {
	v.printf("\nquiz complete, final score %d\n", totalScore)
}

func (v *terminalView) Error(err error) {
	v.printf("\nerror: %v\n", err)
}
