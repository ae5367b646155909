package main

import (
	"context"
	"errors"
	"fmt"
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formmanager"
	"github.com/goliatone/go-formmanager/internal/fetch"
	"github.com/goliatone/go-formmanager/pkg/config"
	"github.com/goliatone/go-formmanager/pkg/controller"
	"github.com/goliatone/go-formmanager/pkg/dom"
	"github.com/goliatone/go-formmanager/pkg/form"
	"github.com/goliatone/go-formmanager/pkg/loop"
	pkgopenapi "github.com/goliatone/go-formmanager/pkg/openapi"
	"github.com/goliatone/go-formmanager/pkg/prompt"
	"github.com/goliatone/go-formmanager/pkg/transport"
)

var errValidation = errors.New("form is invalid")

type pageFlags struct {
	page     string
	selector string
	config   string
	files    []string
}

type app struct {
	verbose bool
	driver  prompt.Driver
	client  transport.Client
}

func newRootCmd() *cobra.Command {
	return (&app{}).root()
}

func (a *app) root() *cobra.Command {
	root := &cobra.Command{
		Use:           "formmanager",
		Short:         "Validate and submit HTML forms from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(a.validateCmd(), a.submitCmd(), a.fillCmd(), a.openapiCmd())
	return root
}

func (a *app) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func addPageFlags(cmd *cobra.Command, f *pageFlags) {
	cmd.Flags().StringVarP(&f.page, "page", "p", "", "HTML page holding the form: path, URL or - for stdin")
	cmd.Flags().StringVarP(&f.selector, "selector", "s", "form", "Selector of the form to bind")
	cmd.Flags().StringVarP(&f.config, "config", "c", "", "Form configuration (JSON or YAML): path or URL")
	cmd.Flags().StringArrayVarP(&f.files, "file", "f", nil, "Select a file for an input, as name=path (repeatable)")
	_ = cmd.MarkFlagRequired("page")
}

func (a *app) validateCmd() *cobra.Command {
	var f pageFlags
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a form and print the first error",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctrl, err := a.bind(cmd, f)
			if err != nil {
				return err
			}
			result := ctrl.Check(cmd.Context())
			ctrl.Wait()
			return report(cmd.OutOrStdout(), result)
		},
	}
	addPageFlags(cmd, &f)
	return cmd
}

func (a *app) submitCmd() *cobra.Command {
	var f pageFlags
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Validate a form and post it to its action",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctrl, err := a.bind(cmd, f)
			if err != nil {
				return err
			}
			return a.submit(cmd, ctrl)
		},
	}
	addPageFlags(cmd, &f)
	return cmd
}

func (a *app) fillCmd() *cobra.Command {
	var f pageFlags
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Prompt for every field, then submit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctrl, err := a.bind(cmd, f)
			if err != nil {
				return err
			}
			filler := prompt.New(prompt.WithDriver(a.driver), prompt.WithLogger(a.logger(cmd)))
			if err := filler.Fill(cmd.Context(), ctrl.Form()); err != nil {
				return err
			}
			ctrl.Wait()
			return a.submit(cmd, ctrl)
		},
	}
	addPageFlags(cmd, &f)
	return cmd
}

func (a *app) openapiCmd() *cobra.Command {
	var (
		spec      string
		operation string
		server    string
		output    string
	)
	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Print a bindable form for an OpenAPI operation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := pkgopenapi.SourceFor(spec)
			if err != nil {
				return err
			}
			markup, err := formmanager.OpenAPIFormHTML(cmd.Context(), src, operation, pkgopenapi.WithServer(server))
			if err != nil {
				return err
			}
			if output == "" {
				_, err = io.WriteString(cmd.OutOrStdout(), markup)
				return err
			}
			if err := os.WriteFile(output, []byte(markup), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Form written to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVar(&spec, "spec", "", "OpenAPI document path or URL")
	cmd.Flags().StringVar(&operation, "operation", "", "Operation ID to render")
	cmd.Flags().StringVar(&server, "server", "", "Base URL prefixed to the operation path")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (stdout if empty)")
	_ = cmd.MarkFlagRequired("spec")
	_ = cmd.MarkFlagRequired("operation")
	return cmd
}

func (a *app) bind(cmd *cobra.Command, f pageFlags) (*controller.Controller, error) {
	ctx := cmd.Context()
	logger := a.logger(cmd)
	fetcher := fetch.New(fetch.WithHTTP(), fetch.WithTimeout(formmanager.DefaultFetchTimeout))

	var opts config.Options
	if f.config != "" {
		data, err := fetcher.Location(ctx, f.config)
		if err != nil {
			return nil, err
		}
		if opts, err = config.Parse(data, f.config); err != nil {
			return nil, err
		}
	}

	page, err := readPage(cmd, fetcher, f.page)
	if err != nil {
		return nil, err
	}

	options := []controller.Option{
		controller.WithLogger(logger),
		controller.WithScheduler(loop.NewAsync()),
		controller.WithContext(ctx),
	}
	if a.client != nil {
		options = append(options, controller.WithClient(a.client))
	}
	ctrl, _, err := formmanager.BindHTML(bytes.NewReader(page), f.selector, opts, options...)
	if err != nil {
		return nil, err
	}

	if err := selectFiles(ctx, ctrl.Form(), f.files); err != nil {
		return nil, err
	}
	ctrl.Wait()
	return ctrl, nil
}

// submit validates once, then posts the form when automatic submission is
// enabled.
func (a *app) submit(cmd *cobra.Command, ctrl *controller.Controller) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	result := ctrl.Check(ctx)
	ctrl.Wait()
	if !result.OK {
		return report(out, result)
	}
	if !ctrl.Config().AutoSubmit {
		_, err := fmt.Fprintln(out, "OK (submission disabled)")
		return err
	}

	var (
		body      string
		submitErr error
	)
	ctrl.OnComplete(func(b string) { body = b })
	ctrl.OnError(func(err error) { submitErr = err })
	ctrl.Submit(ctx)
	ctrl.Wait()

	if submitErr != nil {
		return submitErr
	}
	_, err := fmt.Fprintln(out, body)
	return err
}

func report(w io.Writer, result form.Result) error {
	if result.OK {
		_, err := fmt.Fprintln(w, "OK")
		return err
	}
	if result.First == nil {
		fmt.Fprintln(w, "form could not be validated")
		return errValidation
	}
	msg := result.FirstErrorMessage()
	if msg == "" {
		msg = fmt.Sprintf("%s failed %s check", result.First.Field, result.First.Rule)
	}
	fmt.Fprintf(w, "%s (%d failing checks)\n", msg, result.ErrorCount())
	return errValidation
}

func selectFiles(ctx context.Context, formEl *dom.Element, specs []string) error {
	for _, spec := range specs {
		name, path, ok := strings.Cut(spec, "=")
		if !ok || name == "" || path == "" {
			return fmt.Errorf("invalid --file %q, want name=path", spec)
		}
		input, err := formEl.Query("input[type='file'][name='" + name + "']")
		if err != nil {
			return err
		}
		if input == nil {
			return fmt.Errorf("no file input named %q: %w", name, dom.ErrNotFound)
		}
		file, err := form.LoadFile(path)
		if err != nil {
			return err
		}
		input.SelectFiles(ctx, file)
	}
	return nil
}

// readPage reads the page from stdin for "-", otherwise from a URL or file.
func readPage(cmd *cobra.Command, fetcher *fetch.Fetcher, location string) ([]byte, error) {
	if location == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read page from stdin: %w", err)
		}
		return data, nil
	}
	data, err := fetcher.Location(cmd.Context(), location)
	if err != nil {
		return nil, fmt.Errorf("open page %s: %w", location, err)
	}
	return data, nil
}
