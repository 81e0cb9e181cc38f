package main

import (
	"fmt"
	"html"
	"strings"

	"github.com/spf13/cobra"

	"srcset/internal/api"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var (
		profile     string
		explicit    []string
		maxWidth    int
		quality     int
		format      string
		threshold   int
		defaultSize string
		asJSON      bool
		asHTML      bool
	)

	cmd := &cobra.Command{
		Use:   "render IMAGE [SIZES...]",
		Short: "Render srcset attributes for an image",
		Long: `Render resolves IMAGE against the configured roots, generates any
missing width variants, and prints the attributes for a responsive
<img> tag. Positional SIZES expressions align to the profile's
breakpoints in ascending order ("480px", "50vw", or a bare viewport
percentage).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			renderArgs := api.NewArgs()
			renderArgs.Profile = profile
			renderArgs.Positional = args[1:]
			renderArgs.Explicit, err = parseExplicit(explicit)
			if err != nil {
				return err
			}
			renderArgs.Overrides.MaxWidth = maxWidth
			renderArgs.Overrides.Quality = quality
			renderArgs.Overrides.Format = format
			renderArgs.Overrides.Threshold = threshold
			renderArgs.Overrides.DefaultSize = defaultSize

			img, err := rt.service.PlanAndRender(cmd.Context(), args[0], renderArgs)
			if err != nil {
				return err
			}

			switch {
			case asJSON:
				return writeJSON(cmd, img)
			case asHTML:
				fmt.Fprintln(cmd.OutOrStdout(), imgTag(img))
				return nil
			default:
				printAttributes(cmd, img)
				return nil
			}
		},
	}

	cmd.Flags().StringVarP(&profile, "profile", "p", "", "Configuration profile name")
	cmd.Flags().StringArrayVar(&explicit, "set", nil, "Explicit BREAKPOINT=SIZE mapping (repeatable; replaces profile breakpoints)")
	cmd.Flags().IntVar(&maxWidth, "max-width", 0, "Cap the largest generated width")
	cmd.Flags().IntVar(&quality, "quality", 0, "JPEG quality override (1-100)")
	cmd.Flags().StringVar(&format, "format", "", "Output format override (jpeg, png, gif, tif, bmp)")
	cmd.Flags().IntVar(&threshold, "threshold", -1, "Minimum width gap between variants")
	cmd.Flags().StringVar(&defaultSize, "default-size", "", "Trailing sizes entry override")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	cmd.Flags().BoolVar(&asHTML, "html", false, "Emit a complete <img> tag")

	return cmd
}

func parseExplicit(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	mapping := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		breakpoint, size, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set value %q, want BREAKPOINT=SIZE", pair)
		}
		mapping[strings.TrimSpace(breakpoint)] = strings.TrimSpace(size)
	}
	return mapping, nil
}

func printAttributes(cmd *cobra.Command, img api.RenderedImage) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "src:    %s\n", img.Src)
	if img.Srcset != "" {
		fmt.Fprintf(out, "srcset: %s\n", img.Srcset)
	}
	if img.Sizes != "" {
		fmt.Fprintf(out, "sizes:  %s\n", img.Sizes)
	}
	if img.Width > 0 {
		fmt.Fprintf(out, "width:  %d\n", img.Width)
		fmt.Fprintf(out, "height: %d\n", img.Height)
	}
}

func imgTag(img api.RenderedImage) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<img src="%s"`, html.EscapeString(img.Src))
	if img.Srcset != "" {
		fmt.Fprintf(&b, ` srcset="%s"`, html.EscapeString(img.Srcset))
	}
	if img.Sizes != "" {
		fmt.Fprintf(&b, ` sizes="%s"`, html.EscapeString(img.Sizes))
	}
	if img.Width > 0 {
		fmt.Fprintf(&b, ` width="%d" height="%d"`, img.Width, img.Height)
	}
	b.WriteString(">")
	return b.String()
}
