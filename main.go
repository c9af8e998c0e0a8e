package main

import (
	"log"
	"os"
	"strconv"
	"syscall"
)

// 向运行中的 agrostats serve 发送 SIGHUP：重新打开日志并立即刷新数据
// 用法: go run . <pid>
func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: reload <pid>")
	}
	pid, err := strconv.Atoi(os.Args[1])
	if err != nil || pid <= 0 {
		log.Fatalf("invalid pid %q", os.Args[1])
	}

	if err := syscall.Kill(pid, syscall.SIGHUP); err != nil {
		log.Fatal("Failed to send SIGHUP:", err)
	}
	log.Printf("SIGHUP sent to %d", pid)
}
