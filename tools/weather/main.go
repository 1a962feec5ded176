// weather reports current conditions for a location via the wttr.in JSON
// API. Arguments arrive as one JSON string in argv[1].
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"
)

func fail(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		fail("usage: weather '<json args>'")
	}
	var input struct {
		Location string `json:"location"`
	}
	if err := json.Unmarshal([]byte(os.Args[1]), &input); err != nil {
		fail("bad arguments: " + err.Error())
	}
	if input.Location == "" {
		fail("location is required")
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get("https://wttr.in/" + url.QueryEscape(input.Location) + "?format=j1")
	if err != nil {
		fail(err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fail("HTTP error: " + resp.Status)
	}

	var report struct {
		CurrentCondition []struct {
			TempC       string `json:"temp_C"`
			FeelsLikeC  string `json:"FeelsLikeC"`
			Humidity    string `json:"humidity"`
			WeatherDesc []struct {
				Value string `json:"value"`
			} `json:"weatherDesc"`
		} `json:"current_condition"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		fail("decode: " + err.Error())
	}
	if len(report.CurrentCondition) == 0 {
		fail("no conditions returned for " + input.Location)
	}

	c := report.CurrentCondition[0]
	desc := ""
	if len(c.WeatherDesc) > 0 {
		desc = c.WeatherDesc[0].Value
	}
	fmt.Printf("%s: %s, %s°C (feels like %s°C), humidity %s%%\n",
		input.Location, desc, c.TempC, c.FeelsLikeC, c.Humidity)
}
