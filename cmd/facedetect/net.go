package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/swdee/go-facedetect/convnet"
)

var netDump bool

var netCmd = &cobra.Command{
	Use:   "net <net.xml>",
	Short: "Validate and summarise a network description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {

		net, err := convnet.ParseFile(args[0])

		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()

		if netDump {
			_, err := net.WriteTo(w)
			return err
		}

		fmt.Fprintf(w, "Network: %q, creator %q, input %s\n", net.Name(), net.Creator(), net.InputSize())

		if info := net.Info(); info != "" {
			fmt.Fprintf(w, "Info: %s\n", info)
		}

		return net.Summary(w)
	},
}

func init() {
	netCmd.Flags().BoolVar(&netDump, "dump", false, "Write the parsed network back out as XML")
	rootCmd.AddCommand(netCmd)
}
