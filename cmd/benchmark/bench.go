package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nulzo/analytics-api/internal/auth"
	vegeta "github.com/tsenart/vegeta/v12/lib"
)

const (
	appPort     = 8081
	benchDB     = "bench.db"
	benchSecret = "bench-secret"
)

var endpoints = []string{
	"/api/analytics/users-stats/growth?interval=daily",
	"/api/analytics/users-stats/growth/non-cumulative?interval=weekly",
	"/api/analytics/reports-stats/volume?interval=monthly",
	"/api/analytics/posts-stats/reported?interval=weekly",
	"/api/analytics/posts-stats/total?interval=daily",
	"/api/analytics/posts-stats/top-interacted?interval=weekly&limit=5",
}

func main() {
	duration := flag.Duration("duration", 10*time.Second, "Duration of the test")
	rate := flag.Int("rate", 200, "Requests per second")
	cache := flag.Bool("cache", true, "Enable the result cache")
	chaos := flag.Bool("chaos", false, "Simulate random client disconnections")
	flag.Parse()

	fmt.Println("Building application...")
	for _, target := range []string{"server", "seed"} {
		build := exec.Command("go", "build", "-o", "bin/"+target, "./cmd/"+target)
		build.Stdout = os.Stdout
		build.Stderr = os.Stderr
		if err := build.Run(); err != nil {
			log.Fatalf("Failed to build %s: %v", target, err)
		}
	}
	defer os.Remove(benchDB)

	fmt.Println("Seeding database...")
	seed := exec.Command("./bin/seed", "-db", benchDB, "-days", "365", "-posts", "5000", "-comments", "20000", "-seed", "42")
	seed.Stderr = os.Stderr
	if err := seed.Run(); err != nil {
		log.Fatalf("Failed to seed: %v", err)
	}

	configFile := "bench_config.yaml"
	if err := os.WriteFile(configFile, []byte(benchConfig(*cache)), 0644); err != nil {
		log.Fatalf("Failed to write config: %v", err)
	}
	defer os.Remove(configFile)

	fmt.Println("Starting application...")
	cmd := exec.Command("./bin/server")
	cmd.Env = append(os.Environ(),
		"CONFIG_FILE="+configFile,
		fmt.Sprintf("SERVER_PORT=%d", appPort),
		"LOG_LEVEL=error",
	)

	logFile, _ := os.Create("bench_server.log")
	defer logFile.Close()
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}
	defer func() {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	}()

	waitForApp(fmt.Sprintf("http://localhost:%d/health", appPort))

	issuer, err := auth.NewIssuer(benchSecret, time.Hour)
	if err != nil {
		log.Fatal(err)
	}
	token, err := issuer.Issue("", "bench@example.com", auth.RoleAdmin)
	if err != nil {
		log.Fatal(err)
	}

	done := make(chan struct{})
	go monitorResources(cmd.Process.Pid, done)

	if *chaos {
		concurrency := min(max(*rate/10, 5), 50)
		go startChaosMonkey(token, concurrency, done)
	}

	fmt.Printf("Running benchmark: %s duration, %d req/s, cache=%t\n", *duration, *rate, *cache)

	var next atomic.Uint64
	targeter := func(t *vegeta.Target) error {
		i := next.Add(1) % uint64(len(endpoints))
		t.Method = http.MethodGet
		t.URL = fmt.Sprintf("http://localhost:%d%s", appPort, endpoints[i])
		t.Header = http.Header{"Authorization": []string{"Bearer " + token}}
		return nil
	}

	attacker := vegeta.NewAttacker(vegeta.KeepAlive(true))
	var metrics vegeta.Metrics
	for res := range attacker.Attack(targeter, vegeta.Rate{Freq: *rate, Per: time.Second}, *duration, "Analytics") {
		metrics.Add(res)
	}
	metrics.Close()
	close(done)

	fmt.Println("--------------------------------------------------")
	fmt.Println("99th percentile: ", metrics.Latencies.P99)
	fmt.Println("Mean:            ", metrics.Latencies.Mean)
	fmt.Println("Max:             ", metrics.Latencies.Max)
	fmt.Printf("Success:         %.2f%%\n", metrics.Success*100)
	fmt.Printf("Throughput:      %.2f req/s\n", metrics.Throughput)
	fmt.Println("Status codes:    ", metrics.StatusCodes)
	fmt.Println("--------------------------------------------------")

	if len(metrics.Errors) > 0 {
		fmt.Println("Error Set (first 5 unique):")
		seen := make(map[string]bool)
		for _, msg := range metrics.Errors {
			if !seen[msg] && len(seen) < 5 {
				fmt.Println(msg)
				seen[msg] = true
			}
		}
	}
}

// startChaosMonkey fires requests that are cancelled after 1-200ms.
func startChaosMonkey(token string, concurrency int, done chan struct{}) {
	fmt.Printf("Starting Chaos Monkey with %d concurrent disrupters\n", concurrency)
	var wg sync.WaitGroup
	wg.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go func() {
			defer wg.Done()
			client := &http.Client{}

			for {
				select {
				case <-done:
					return
				default:
					timeout := time.Duration(rand.Intn(200)+1) * time.Millisecond
					url := fmt.Sprintf("http://localhost:%d%s", appPort, endpoints[rand.Intn(len(endpoints))])

					ctx, cancel := context.WithTimeout(context.Background(), timeout)
					req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
					req.Header.Set("Authorization", "Bearer "+token)

					resp, err := client.Do(req)
					if err == nil {
						resp.Body.Close()
					}
					cancel()

					time.Sleep(time.Duration(rand.Intn(50)) * time.Millisecond)
				}
			}
		}()
	}
	wg.Wait()
}

func monitorResources(pid int, done chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	fmt.Println("\n--- Resource Usage (ps) ---")
	fmt.Printf("% -10s % -10s % -10s\n", "Time", "RSS(MB)", "CPU(%)")

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			out, err := exec.Command("ps", "-p", strconv.Itoa(pid), "-o", "rss=,%cpu=").Output()
			if err != nil {
				continue
			}
			fields := strings.Fields(string(out))
			if len(fields) < 2 {
				continue
			}
			rss, _ := strconv.ParseFloat(fields[0], 64)
			cpu, _ := strconv.ParseFloat(fields[1], 64)

			fmt.Printf("% -10s % -10.2f % -10.2f\n", time.Now().Format("15:04:05"), rss/1024, cpu)
		}
	}
}

func waitForApp(url string) {
	for i := 0; i < 20; i++ {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	log.Fatal("App timed out")
}

func benchConfig(cache bool) string {
	return fmt.Sprintf(`
server:
  port: "%d"
  env: development
database:
  driver: sqlite
  dsn: %q
auth:
  jwt_secret: %q
cache:
  enabled: %t
  ttl: 1m
rate_limit:
  enabled: false
log:
  level: error
updates:
  enabled: false
`, appPort, benchDB, benchSecret, cache)
}
