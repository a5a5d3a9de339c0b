package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/google/subcommands"
	"github.com/inbucket/outbox/pkg/config"
	"github.com/inbucket/outbox/pkg/draft"
	"github.com/inbucket/outbox/pkg/rest/client"
	"github.com/inbucket/outbox/pkg/server"
	"github.com/rs/zerolog/log"
)

// readDraftFile decodes the named draft, "-" reads stdin.
func readDraftFile(name string) (*draft.Draft, error) {
	var r io.Reader = os.Stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return draft.Decode(r)
}

func rootConfig(args []any) *config.Root {
	return args[0].(*config.Root)
}

type renderCmd struct {
	file string
}

func (*renderCmd) Name() string {
	return "render"
}

func (*renderCmd) Synopsis() string {
	return "print the MIME source of a draft"
}

func (*renderCmd) Usage() string {
	return `render -f <draft>:
	build the draft and write the RFC 5322 message to stdout
`
}

func (r *renderCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&r.file, "f", "-", "draft file, YAML or JSON")
}

func (r *renderCmd) Execute(
	ctx context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	d, err := readDraftFile(r.file)
	if err != nil {
		return fatal("Couldn't read draft", err)
	}
	if *apiURL != "" {
		c, err := client.New(*apiURL)
		if err != nil {
			return fatal("Couldn't build client", err)
		}
		source, err := c.Render(ctx, d)
		if err != nil {
			return fatal("REST call failed", err)
		}
		_, _ = os.Stdout.Write(source)
		return subcommands.ExitSuccess
	}
	msg, err := server.NewManager(rootConfig(args)).Compose(ctx, d)
	if err != nil {
		return fatal("Couldn't build message", err)
	}
	if _, err := msg.WriteTo(os.Stdout); err != nil {
		return fatal("Couldn't write message", err)
	}
	return subcommands.ExitSuccess
}

type sendCmd struct {
	file string
}

func (*sendCmd) Name() string {
	return "send"
}

func (*sendCmd) Synopsis() string {
	return "build and deliver a draft"
}

func (*sendCmd) Usage() string {
	return `send -f <draft>:
	build the draft and deliver it through the configured relay
`
}

func (s *sendCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&s.file, "f", "-", "draft file, YAML or JSON")
}

func (s *sendCmd) Execute(
	ctx context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	d, err := readDraftFile(s.file)
	if err != nil {
		return fatal("Couldn't read draft", err)
	}
	if *apiURL != "" {
		c, err := client.New(*apiURL)
		if err != nil {
			return fatal("Couldn't build client", err)
		}
		sent, err := c.Send(ctx, d)
		if err != nil {
			return fatal("REST call failed", err)
		}
		fmt.Println(sent.ID)
		for _, r := range sent.Rejected {
			fmt.Fprintf(os.Stderr, "rejected: %s\n", r)
		}
		return subcommands.ExitSuccess
	}
	msg, err := server.NewManager(rootConfig(args)).Send(ctx, d)
	if err != nil {
		return fatal("Send failed", err)
	}
	fmt.Println(msg.ID())
	return subcommands.ExitSuccess
}

type sessionCmd struct{}

func (*sessionCmd) Name() string {
	return "session"
}

func (*sessionCmd) Synopsis() string {
	return "print the transport session properties"
}

func (*sessionCmd) Usage() string {
	return `session:
	print the mail session properties derived from the environment
`
}

func (*sessionCmd) SetFlags(f *flag.FlagSet) {}

func (*sessionCmd) Execute(
	ctx context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if *apiURL != "" {
		c, err := client.New(*apiURL)
		if err != nil {
			return fatal("Couldn't build client", err)
		}
		props, err := c.Session(ctx)
		if err != nil {
			return fatal("REST call failed", err)
		}
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%s=%s\n", k, props[k])
		}
		return subcommands.ExitSuccess
	}
	s, err := server.NewManager(rootConfig(args)).Session()
	if err != nil {
		return fatal("Couldn't configure session", err)
	}
	fmt.Print(s.String())
	return subcommands.ExitSuccess
}

type serveCmd struct{}

func (*serveCmd) Name() string {
	return "serve"
}

func (*serveCmd) Synopsis() string {
	return "run the REST API"
}

func (*serveCmd) Usage() string {
	return `serve:
	accept drafts over HTTP until interrupted
`
}

func (*serveCmd) SetFlags(f *flag.FlagSet) {}

func (*serveCmd) Execute(
	ctx context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	conf := rootConfig(args)
	if *apiURL != "" {
		return usage("serve does not accept -api")
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svcs := server.Prod(conf)
	done := make(chan struct{})
	go func() {
		defer close(done)
		svcs.Start(ctx, func() {
			log.Info().Str("phase", "startup").Str("addr", svcs.WebServer.Addr()).
				Msg("Outbox ready")
		})
	}()

	select {
	case <-ctx.Done():
		log.Info().Str("phase", "shutdown").Msg("Received signal, shutting down")
		<-done
		return subcommands.ExitSuccess
	case err := <-svcs.Notify():
		stop()
		<-done
		return fatal("HTTP server failed", err)
	}
}

type envCmd struct{}

func (*envCmd) Name() string {
	return "env"
}

func (*envCmd) Synopsis() string {
	return "list the environment variables"
}

func (*envCmd) Usage() string {
	return `env:
	describe the OUTBOX_* configuration variables
`
}

func (*envCmd) SetFlags(f *flag.FlagSet) {}

func (*envCmd) Execute(context.Context, *flag.FlagSet, ...any) subcommands.ExitStatus {
	if err := config.Usage(os.Stdout); err != nil {
		return fatal("Unable to parse env config", err)
	}
	return subcommands.ExitSuccess
}
