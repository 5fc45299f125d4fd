package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"chat-platform/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}
	cmd := os.Args[1]
	args := os.Args[2:]
	switch cmd {
	case "version":
		fmt.Println("chat-platform cli 0.1.0")
	case "config":
		runConfig()
	case "chat":
		runChat(args)
	case "status":
		runStatus()
	case "websearch":
		if len(args) < 1 || (args[0] != "on" && args[0] != "off") {
			fmt.Fprintf(os.Stderr, "Usage: chatctl websearch on|off\n")
			os.Exit(1)
		}
		runWebSearch(args[0] == "on")
	case "audit":
		if len(args) < 1 {
			fmt.Fprintf(os.Stderr, "Usage: chatctl audit <session_id>\n")
			os.Exit(1)
		}
		runAudit(args[0])
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: chatctl <command> [args]")
	fmt.Println("  version              - 显示版本")
	fmt.Println("  config               - 显示配置概要")
	fmt.Println("  chat [session_id]    - 交互式对话（/web on|off /status /quit）")
	fmt.Println("  status               - 查看服务状态")
	fmt.Println("  websearch on|off     - 修改网页检索开关")
	fmt.Println("  audit <session_id>   - 查看会话审计日志")
}

func runConfig() {
	cfg, err := config.LoadAPIConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("api.port=%d\n", cfg.API.Port)
	fmt.Printf("model.defaults.llm=%s\n", cfg.Model.Defaults.LLM)
	fmt.Printf("memory.capacity=%d\n", cfg.Memory.Capacity)
	fmt.Printf("websearch.enabled=%v\n", cfg.WebSearch.Enabled)
}

func runChat(args []string) {
	sessionID := ""
	if len(args) > 0 {
		sessionID = args[0]
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		msg := strings.TrimSpace(line)
		if msg == "" {
			continue
		}

		switch {
		case msg == "/quit" || msg == "exit" || msg == "quit":
			return
		case msg == "/status":
			runStatus()
			continue
		case msg == "/web on" || msg == "/web off":
			runWebSearch(msg == "/web on")
			continue
		}

		reply, err := postChat(sessionID, msg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "发送失败: %v\n", err)
			continue
		}
		sessionID = reply.SessionID
		fmt.Printf("[%s] %s\n", reply.Intent, reply.Answer)
	}
}

func runStatus() {
	status, err := getStatus()
	if err != nil {
		fmt.Fprintf(os.Stderr, "查询状态失败: %v\n", err)
		return
	}
	fmt.Println(prettyJSON(status))
}

func runWebSearch(enabled bool) {
	out, err := setWebSearch(enabled)
	if err != nil {
		fmt.Fprintf(os.Stderr, "修改开关失败: %v\n", err)
		return
	}
	fmt.Println(prettyJSON(out))
}

func runAudit(sessionID string) {
	out, err := getAudit(sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取审计日志失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(out))
}
