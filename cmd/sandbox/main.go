// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// sandbox 从标准输入读一段 Go 源码，在 yaegi 解释器里求值并把结果打印到标准输出。
// 解释器不加载任何标准库符号，被执行的代码只能用语言本身的能力，
// 进程级隔离（超时、空环境变量）由调用方负责。
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/traefik/yaegi/interp"
)

func main() {
	source, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read source: %v\n", err)
		os.Exit(1)
	}
	if len(source) == 0 {
		fmt.Fprintln(os.Stderr, "empty source")
		os.Exit(1)
	}

	i := interp.New(interp.Options{})

	value, err := i.Eval(string(source))
	if err != nil {
		fmt.Fprintf(os.Stderr, "eval: %v\n", err)
		os.Exit(1)
	}
	if value.IsValid() {
		fmt.Println(value)
	}
}
