// Package deferred 提供延迟绑定的流
//
// 拨号调用同步返回一个 Stream，底层连接在后台拨号与协商完成后才绑定。
// 绑定前的写入按顺序缓存，绑定时先于任何后续写入回放到底层连接；
// 读取在绑定（或失败、关闭）之前阻塞。
//
// 使用示例：
//
//	s := deferred.New()
//	go func() {
//	    conn, err := dial()
//	    if err != nil {
//	        s.Fail(err)
//	        return
//	    }
//	    s.Bind(conn)
//	}()
//	s.Write([]byte("hello")) // 绑定前写入，稍后回放
package deferred
