package main

import (
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	transporthttp "github.com/vovakirdan/campus-realtime/internal/transport/http"
)

func newRoomsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rooms [room]",
		Short: "List live rooms, or the members of one room",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				var members transporthttp.MembersResponse
				u := root.baseURL() + "/api/rooms/" + url.PathEscape(args[0]) + "/members"
				if err := callAPI(cmd.Context(), http.MethodGet, u, nil, &members); err != nil {
					return err
				}
				rows := make([][]string, 0, len(members.Members))
				for _, id := range members.Members {
					rows = append(rows, []string{members.Room, id})
				}
				renderTable(cmd.OutOrStdout(), []string{"Room", "Connection"}, rows)
				return nil
			}

			var rooms []transporthttp.RoomResponse
			if err := callAPI(cmd.Context(), http.MethodGet, root.baseURL()+"/api/rooms", nil, &rooms); err != nil {
				return err
			}
			rows := make([][]string, 0, len(rooms))
			for _, r := range rooms {
				rows = append(rows, []string{r.Name, strconv.Itoa(r.Members)})
			}
			renderTable(cmd.OutOrStdout(), []string{"Room", "Members"}, rows)
			return nil
		},
	}
}

func renderTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.AppendBulk(rows)
	table.Render()
}
