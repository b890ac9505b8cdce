package main

// The UI is served as two self-contained pages. Placeholder tokens of the
// form __NAME__ are substituted per request before the page is written.

const pageStyles = `
:root {
    --bg: #f4f6fa;
    --surface: #ffffff;
    --text: #1f2733;
    --muted: #6b7686;
    --border: #dde3ec;
    --accent: #2456a6;
    --accent-text: #ffffff;
    --ok: #278c4d;
    --warn: #b97d14;
    --error: #c0392b;
    --info: #2b6cb0;
}
body.dark-theme {
    --bg: #151a22;
    --surface: #1e2530;
    --text: #e8ecf2;
    --muted: #98a3b3;
    --border: #313a48;
    --accent: #4e8cd9;
    --accent-text: #0d1117;
}
* { box-sizing: border-box; }
body {
    margin: 0;
    font-family: "Segoe UI", system-ui, sans-serif;
    background: var(--bg);
    color: var(--text);
    transition: background 0.2s, color 0.2s;
}
.topbar {
    display: flex;
    align-items: center;
    justify-content: space-between;
    padding: 14px 28px;
    background: var(--surface);
    border-bottom: 1px solid var(--border);
}
.brand { font-size: 18px; font-weight: 700; }
.topbar-actions { display: flex; align-items: center; gap: 14px; }
.user-email { color: var(--muted); font-size: 13px; }
.icon-btn {
    border: 1px solid var(--border);
    background: var(--surface);
    color: var(--text);
    border-radius: 8px;
    padding: 6px 10px;
    cursor: pointer;
    font-size: 15px;
}
.nav-pills { display: flex; gap: 8px; padding: 18px 28px 0; }
.nav-pill {
    border: 1px solid var(--border);
    background: var(--surface);
    color: var(--muted);
    border-radius: 999px;
    padding: 7px 18px;
    cursor: pointer;
    font-size: 14px;
}
.nav-pill.active {
    background: var(--accent);
    border-color: var(--accent);
    color: var(--accent-text);
}
main { padding: 20px 28px 48px; max-width: 980px; }
.page-section { display: none; }
.page-section.active { display: block; }
.card {
    background: var(--surface);
    border: 1px solid var(--border);
    border-radius: 12px;
    padding: 20px;
    margin-bottom: 18px;
}
.stat-grid { display: flex; flex-wrap: wrap; gap: 14px; margin-bottom: 18px; }
.stat {
    flex: 1 1 140px;
    background: var(--surface);
    border: 1px solid var(--border);
    border-radius: 12px;
    padding: 14px 18px;
}
.stat .value { font-size: 26px; font-weight: 700; }
.stat .label { color: var(--muted); font-size: 12px; text-transform: uppercase; }
label { display: block; font-size: 13px; color: var(--muted); margin-bottom: 6px; }
input[type=text], input[type=email], input[type=password] {
    width: 100%;
    padding: 10px 12px;
    border: 1px solid var(--border);
    border-radius: 8px;
    background: var(--bg);
    color: var(--text);
    font-size: 14px;
}
button[type=submit] {
    margin-top: 14px;
    background: var(--accent);
    color: var(--accent-text);
    border: none;
    border-radius: 8px;
    padding: 10px 22px;
    font-size: 14px;
    cursor: pointer;
}
button[type=submit]:disabled { opacity: 0.6; cursor: default; }
.hint { min-height: 18px; margin-top: 8px; font-size: 13px; }
.hint-none { color: var(--muted); }
.hint-error { color: var(--error); }
.hint-warn { color: var(--warn); }
.hint-ok { color: var(--ok); }
table { width: 100%; border-collapse: collapse; font-size: 13px; }
th, td { text-align: left; padding: 9px 10px; border-bottom: 1px solid var(--border); }
th { color: var(--muted); font-weight: 600; }
.verdict-phishing { color: var(--error); font-weight: 600; }
.verdict-legitimate { color: var(--ok); font-weight: 600; }
a.report-link { color: var(--accent); text-decoration: none; }
.toast-container {
    position: fixed;
    top: 18px;
    right: 18px;
    display: flex;
    flex-direction: column;
    gap: 10px;
    z-index: 1000;
}
.toast {
    position: relative;
    min-width: 260px;
    max-width: 360px;
    background: var(--surface);
    border: 1px solid var(--border);
    border-left: 4px solid var(--info);
    border-radius: 10px;
    padding: 12px 30px 12px 14px;
    box-shadow: 0 6px 18px rgba(0, 0, 0, 0.12);
    transition: opacity 0.18s ease, transform 0.18s ease;
}
.toast-leaving { opacity: 0; transform: translateX(14px); }
.toast-close {
    position: absolute;
    top: 6px;
    right: 8px;
    border: none;
    background: none;
    color: var(--muted);
    font-size: 15px;
    line-height: 1;
    cursor: pointer;
}
.blocklist-note { color: var(--error); font-size: 13px; }
.toast-success { border-left-color: var(--ok); }
.toast-error { border-left-color: var(--error); }
.toast-warning { border-left-color: var(--warn); }
.toast-info { border-left-color: var(--info); }
.toast .toast-title { font-weight: 700; font-size: 13px; margin-bottom: 3px; }
.toast .toast-message { font-size: 13px; color: var(--muted); }
.overlay {
    position: fixed;
    inset: 0;
    display: none;
    align-items: center;
    justify-content: center;
    background: rgba(10, 14, 20, 0.45);
    z-index: 900;
}
.overlay.visible { display: flex; }
.overlay .spinner {
    width: 46px;
    height: 46px;
    border: 4px solid rgba(255, 255, 255, 0.35);
    border-top-color: #ffffff;
    border-radius: 50%;
    animation: spin 0.9s linear infinite;
}
@keyframes spin { to { transform: rotate(360deg); } }
.auth-body main { max-width: 420px; margin: 40px auto; }
`

const pageScript = `
(function () {
    "use strict";

    // ---- toast notifications ----
    var toastSeq = 0;
    var activeToasts = 0;
    var TOAST_TITLES = { success: "Success", error: "Error", warning: "Warning", info: "Notice" };

    function normalizeToastType(type) {
        return TOAST_TITLES.hasOwnProperty(type) ? type : "info";
    }

    function toastContainer() {
        var el = document.querySelector(".toast-container");
        if (!el) {
            el = document.createElement("div");
            el.className = "toast-container";
            document.body.appendChild(el);
        }
        return el;
    }

    function showToast(message, type, title, duration) {
        if (!message) {
            return;
        }
        type = normalizeToastType(type);
        title = title || TOAST_TITLES[type];
        duration = duration || 4500;

        var container = toastContainer();
        var toast = document.createElement("div");
        toast.className = "toast toast-" + type;
        toast.dataset.toastId = String(++toastSeq);

        var titleEl = document.createElement("div");
        titleEl.className = "toast-title";
        titleEl.textContent = title;
        var messageEl = document.createElement("div");
        messageEl.className = "toast-message";
        messageEl.textContent = message;
        var closeEl = document.createElement("button");
        closeEl.type = "button";
        closeEl.className = "toast-close";
        closeEl.setAttribute("aria-label", "Dismiss");
        closeEl.textContent = "×";
        toast.appendChild(titleEl);
        toast.appendChild(messageEl);
        toast.appendChild(closeEl);
        container.appendChild(toast);
        activeToasts++;

        var removed = false;
        var timer = setTimeout(dismiss, duration);
        closeEl.addEventListener("click", dismiss);

        function dismiss() {
            if (removed) {
                return;
            }
            removed = true;
            clearTimeout(timer);
            toast.classList.add("toast-leaving");
            setTimeout(function () {
                toast.remove();
                activeToasts--;
                if (activeToasts === 0) {
                    container.remove();
                }
            }, 180);
        }
    }

    // ---- theme ----
    var THEME_KEY = "theme";

    function applyTheme(theme) {
        theme = theme === "dark" ? "dark" : "light";
        document.body.classList.toggle("dark-theme", theme === "dark");
        var icon = document.getElementById("themeToggleIcon");
        if (icon) {
            icon.textContent = theme === "dark" ? "☀" : "☾";
        }
        return theme;
    }

    function loadTheme() {
        var stored = null;
        try {
            stored = localStorage.getItem(THEME_KEY);
        } catch (e) {}
        applyTheme(stored === "dark" ? "dark" : "light");
    }

    function toggleTheme() {
        var next = document.body.classList.contains("dark-theme") ? "light" : "dark";
        applyTheme(next);
        try {
            localStorage.setItem(THEME_KEY, next);
        } catch (e) {}
        showToast(next === "dark" ? "Dark theme enabled." : "Light theme enabled.", "info", null, 2500);
    }

    // ---- tab switching ----
    function switchTab(target) {
        if (!target) {
            return;
        }
        var pills = document.querySelectorAll(".nav-pill");
        var sections = document.querySelectorAll(".page-section");
        pills.forEach(function (p) { p.classList.remove("active"); });
        sections.forEach(function (s) { s.classList.remove("active"); });

        var pill = document.querySelector('.nav-pill[data-target="' + target + '"]');
        var section = document.getElementById(target);
        if (pill) {
            pill.classList.add("active");
        }
        if (section) {
            section.classList.add("active");
        }
        window.scrollTo({ top: 0, behavior: "smooth" });
    }

    // ---- URL heuristic pre-check ----
    var SUSPICIOUS_KEYWORDS = ["login", "signin", "verify", "secure", "update", "bank", "payment", "paypal"];

    function checkUrl(text) {
        var value = (text || "").trim();
        if (value === "") {
            return { status: "empty", message: "Enter a URL to scan." };
        }
        if (value.indexOf(" ") !== -1 || value.indexOf(".") === -1) {
            return { status: "error", message: "This does not look like a complete URL." };
        }
        var lower = value.toLowerCase();
        var found = SUSPICIOUS_KEYWORDS.filter(function (kw) {
            return lower.indexOf(kw) !== -1;
        });
        if (found.length >= 2) {
            return { status: "warn", message: "Suspicious keywords detected: " + found.join(", ") };
        }
        if (found.length === 1) {
            return { status: "warn", message: "Suspicious keyword detected: " + found[0] };
        }
        return { status: "ok", message: "URL looks valid. Deep analysis makes the final decision." };
    }

    // ---- scan form ----
    function wireScanForm() {
        var form = document.getElementById("scanForm");
        if (!form) {
            return;
        }
        var input = document.getElementById("urlInput");
        var button = document.getElementById("scanBtn");
        var hint = document.getElementById("urlHint");
        var overlay = document.getElementById("loadingOverlay");
        var submitting = false;

        function setHint(result) {
            hint.textContent = result.message;
            hint.className = "hint hint-" + (result.status === "empty" ? "none" : result.status);
        }

        input.addEventListener("input", function () {
            setHint(checkUrl(input.value));
        });

        input.addEventListener("keydown", function (event) {
            if (event.ctrlKey && event.key === "Enter") {
                event.preventDefault();
                if (form.requestSubmit) {
                    form.requestSubmit();
                } else {
                    form.submit();
                }
            }
        });

        form.addEventListener("submit", function (event) {
            var value = input.value.trim();
            input.value = value;
            var result = checkUrl(value);
            setHint(result);

            if (result.status === "empty") {
                event.preventDefault();
                showToast("Please enter a URL before scanning.", "error");
                input.focus();
                return;
            }
            if (result.status === "error") {
                event.preventDefault();
                showToast("That does not look like a complete URL.", "error");
                input.focus();
                return;
            }
            if (submitting) {
                event.preventDefault();
                return;
            }
            submitting = true;

            if (result.status === "warn") {
                showToast("Suspicious URL submitted. Deep analysis will proceed.", "warning");
            } else {
                showToast("URL submitted for deep analysis.", "success");
            }
            button.disabled = true;
            if (overlay) {
                overlay.classList.add("visible");
            }
        });
    }

    // ---- server flash messages ----
    function drainFlash() {
        var el = document.getElementById("flashData");
        if (!el) {
            return;
        }
        var entries;
        try {
            entries = JSON.parse(el.textContent);
        } catch (e) {
            return;
        }
        if (!Array.isArray(entries)) {
            return;
        }
        entries.forEach(function (entry) {
            if (Array.isArray(entry) && entry.length >= 2) {
                showToast(entry[1], normalizeToastType(entry[0]));
            }
        });
    }

    document.addEventListener("DOMContentLoaded", function () {
        loadTheme();

        var toggle = document.getElementById("themeToggle");
        if (toggle) {
            toggle.addEventListener("click", toggleTheme);
        }

        document.querySelectorAll(".nav-pill").forEach(function (pill) {
            pill.addEventListener("click", function () {
                switchTab(pill.dataset.target);
            });
        });

        if (document.body.classList.contains("auth-body")) {
            switchTab(location.pathname === "/register" ? "register-section" : "login-section");
        }

        wireScanForm();
        drainFlash();
    });
})();
`

const dashboardPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>ThreatScan</title>
<style>__STYLES__</style>
</head>
<body class="app-body">
<header class="topbar">
    <div class="brand">ThreatScan</div>
    <div class="topbar-actions">
        <span class="user-email">__USER_EMAIL__</span>
        <button id="themeToggle" class="icon-btn" type="button" title="Toggle theme"><span id="themeToggleIcon">&#9790;</span></button>
        <a class="icon-btn" href="/logout">Sign out</a>
    </div>
</header>

<nav class="nav-pills">
    <button class="nav-pill active" type="button" data-target="scan-section">Scan</button>
    <button class="nav-pill" type="button" data-target="history-section">History</button>
</nav>

<main>
<section id="scan-section" class="page-section active">
    <div class="stat-grid">__STATS__</div>
    <div class="card">
        <h2>Deep URL Analysis</h2>
        <form id="scanForm" method="POST" action="/predict">
            <label for="urlInput">URL to analyze</label>
            <input type="text" id="urlInput" name="url" autocomplete="off" placeholder="https://example.com/login">
            <div id="urlHint" class="hint hint-none"></div>
            <button id="scanBtn" type="submit">Run deep analysis</button>
        </form>
    </div>
    __RESULT_PANEL__
</section>

<section id="history-section" class="page-section">
    <div class="card">
        <h2>Recent Scans</h2>
        <table>
            <thead>
                <tr><th>URL</th><th>Verdict</th><th>Keywords</th><th>Age (days)</th><th>Scanned</th><th>Report</th></tr>
            </thead>
            <tbody>__SCAN_ROWS__</tbody>
        </table>
    </div>
</section>
</main>

<div id="loadingOverlay" class="overlay"><div class="spinner"></div></div>

<script id="flashData" type="application/json">__FLASH_PAYLOAD__</script>
<script>__SCRIPT__</script>
</body>
</html>`

const authPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>ThreatScan - Sign in</title>
<style>__STYLES__</style>
</head>
<body class="auth-body">
<header class="topbar">
    <div class="brand">ThreatScan</div>
    <div class="topbar-actions">
        <button id="themeToggle" class="icon-btn" type="button" title="Toggle theme"><span id="themeToggleIcon">&#9790;</span></button>
    </div>
</header>

<main>
<nav class="nav-pills">
    <button class="nav-pill" type="button" data-target="login-section">Sign in</button>
    <button class="nav-pill" type="button" data-target="register-section">Register</button>
</nav>

<section id="login-section" class="page-section">
    <div class="card">
        <h2>Sign in</h2>
        <form method="POST" action="/login">
            <label for="loginEmail">Email</label>
            <input type="email" id="loginEmail" name="email" autocomplete="email">
            <label for="loginPassword">Password</label>
            <input type="password" id="loginPassword" name="password" autocomplete="current-password">
            <button type="submit">Sign in</button>
        </form>
    </div>
</section>

<section id="register-section" class="page-section">
    <div class="card">
        <h2>Create account</h2>
        <form method="POST" action="/register">
            <label for="registerEmail">Email</label>
            <input type="email" id="registerEmail" name="email" autocomplete="email">
            <label for="registerPassword">Password</label>
            <input type="password" id="registerPassword" name="password" autocomplete="new-password">
            <button type="submit">Register</button>
        </form>
    </div>
</section>
</main>

<script id="flashData" type="application/json">__FLASH_PAYLOAD__</script>
<script>__SCRIPT__</script>
</body>
</html>`
