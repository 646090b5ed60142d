package web

//go:generate go tool templ generate

// pageStyle is inlined into the document head by Layout.
const pageStyle = `
body{margin:0;background:#0a0a0a;color:#e5e5e5;font-family:system-ui,sans-serif}
.section{max-width:1100px;margin:0 auto;padding:4rem 1.5rem}
.header{display:flex;justify-content:space-between;align-items:flex-end;border-bottom:1px solid #333;padding-bottom:2rem;margin-bottom:3rem}
h2{font-size:3.5rem;margin:0;text-transform:uppercase}
h2 span{color:#c6ff00}
.badge{margin-top:.5rem;font:12px monospace;text-transform:uppercase;letter-spacing:.1em}
.badge-cache{color:#8be9fd}.badge-live{color:#50fa7b}.badge-fallback{color:#f1c40f}
.loading,.empty{text-align:center;padding:5rem 0;font-family:monospace;color:#777}
.error{text-align:center;padding:5rem 1rem;border:1px solid #5a1a1a;background:#1a0808;max-width:40rem;margin:0 auto}
.error h3{color:#ef4444}
.error p{font-family:monospace;color:#999}
a.project{display:flex;justify-content:space-between;align-items:center;padding:2.5rem 1rem;border-bottom:1px solid #222;color:inherit;text-decoration:none}
a.project:hover{background:#111}
.project h3{font-size:2rem;margin:0;text-transform:uppercase;display:inline}
.wip{margin-left:1rem;padding:.2rem .7rem;border:1px solid #8be9fd;color:#8be9fd;border-radius:999px;font-size:.7rem}
.meta{color:#777;margin-top:.5rem}
.category{color:#8be9fd;font-weight:bold}
.topics span{font:12px monospace;background:#1a1a1a;padding:.2rem .5rem;margin-right:.5rem}
.year{font-size:1.2rem}
.profile{display:inline-block;margin-top:4rem;padding:1rem 2.5rem;border:1px solid #c6ff00;color:#c6ff00;text-transform:uppercase;text-decoration:none}
`
