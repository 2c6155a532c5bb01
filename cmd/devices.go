package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "list verified devices known to a running daemon",
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		broker, _ := cobraCmd.Flags().GetString("broker")
		targetID, _ := cobraCmd.Flags().GetString("client-id")
		asJSON, _ := cobraCmd.Flags().GetBool("json")

		queryID := "mavdiscover-cli-" + uuid.NewString()[:8]
		opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID(queryID).SetConnectTimeout(3 * time.Second)
		client := mqtt.NewClient(opts)

		if token := client.Connect(); !token.WaitTimeout(3*time.Second) || token.Error() != nil {
			return fmt.Errorf("failed to connect to broker %s", broker)
		}
		defer client.Disconnect(250)

		resultCh := make(chan []byte, 1)
		respTopic := "direct_messaging/" + targetID + "/responses"
		if token := client.Subscribe(respTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			select {
			case resultCh <- msg.Payload():
			default:
			}
		}); !token.WaitTimeout(3 * time.Second) {
			return fmt.Errorf("failed to subscribe to %s", respTopic)
		}

		req := map[string]interface{}{"jsonrpc": "2.0", "id": "cli-1", "method": "device-list"}
		body, _ := json.Marshal(req)
		client.Publish("direct_messaging/"+targetID+"/requests", 0, false, body)

		select {
		case payload := <-resultCh:
			return printDeviceList(payload, asJSON)
		case <-time.After(5 * time.Second):
			return fmt.Errorf("timed out waiting for a device-list response from %s", targetID)
		}
	},
}

func printDeviceList(payload []byte, asJSON bool) error {
	if asJSON {
		fmt.Println(string(payload))
		return nil
	}

	var resp struct {
		Result struct {
			Devices []map[string]interface{} `json:"devices"`
			Count   int                       `json:"count"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(payload, &resp); err != nil {
		return err
	}
	if resp.Error != nil {
		return fmt.Errorf("%s", resp.Error.Message)
	}

	tbl := table.New("Path", "Board", "Autopilot", "Baudrate", "State")
	for _, dev := range resp.Result.Devices {
		tbl.AddRow(dev["devicePath"], dev["boardName"], dev["autopilotType"], dev["baudrate"], dev["state"])
	}
	tbl.Print()
	return nil
}

func init() {
	devicesCmd.Flags().String("broker", "tcp://localhost:1883", "MQTT broker URL")
	devicesCmd.Flags().String("client-id", "mavdiscover", "clientId of the daemon to query")
	devicesCmd.Flags().Bool("json", false, "print the raw JSON-RPC response instead of a table")
	CMD.AddCommand(devicesCmd)
}
