package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/mmcdole/podcasts/internal/domain"
	"golang.org/x/term"
)

// podcastView is the exported shape of a podcast for json and yaml output.
type podcastView struct {
	ID        string `json:"id" yaml:"id"`
	Title     string `json:"title" yaml:"title"`
	Publisher string `json:"publisher" yaml:"publisher"`
	Episodes  int    `json:"total_episodes,omitempty" yaml:"total_episodes,omitempty"`
	Website   string `json:"website,omitempty" yaml:"website,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	Favourite bool   `json:"favourite" yaml:"favourite"`
}

func toViews(podcasts []domain.Podcast) []podcastView {
	views := make([]podcastView, len(podcasts))
	for i, p := range podcasts {
		views[i] = podcastView{
			ID:        p.ID,
			Title:     p.Title,
			Publisher: p.Publisher,
			Episodes:  p.TotalEpisodes,
			Website:   p.Website,
			Thumbnail: p.ThumbnailURL,
			Favourite: p.IsFavourite,
		}
	}
	return views
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// writeTable prints aligned columns to a terminal and tab separated lines
// otherwise, so output can be piped into cut or awk.
func writeTable(w io.Writer, podcasts []domain.Podcast) error {
	if !isTerminal(w) {
		for _, p := range podcasts {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
				mark(p), p.ID, p.Title, p.Publisher, p.TotalEpisodes); err != nil {
				return err
			}
		}
		return nil
	}

	if len(podcasts) == 0 {
		_, err := fmt.Fprintln(w, "No podcasts.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, " \tID\tTITLE\tPUBLISHER\tEPISODES")
	for _, p := range podcasts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", mark(p), p.ID, p.Title, p.Publisher, p.EpisodeLabel())
	}
	return tw.Flush()
}

func mark(p domain.Podcast) string {
	if p.IsFavourite {
		return "*"
	}
	return "-"
}
